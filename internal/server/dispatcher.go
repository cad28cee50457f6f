// Package server はRADIUSリスナーとリクエストディスパッチャを提供する。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"layeh.com/radius"

	"github.com/yamorin9/radscen/internal/dialog"
	"github.com/yamorin9/radscen/internal/metrics"
	"github.com/yamorin9/radscen/internal/pool"
	radpkt "github.com/yamorin9/radscen/internal/radius"
	"github.com/yamorin9/radscen/internal/reply"
	"github.com/yamorin9/radscen/internal/rules"
	"github.com/yamorin9/radscen/internal/scenario"
	"github.com/yamorin9/radscen/pkg/apperr"
	"github.com/yamorin9/radscen/pkg/logging"
)

// Acct-Status-Typeの文字列正規化値
const (
	acctStatusStart   = "1"
	acctStatusStop    = "2"
	acctStatusInterim = "3"
)

// リプライ定義にマッチしない認証リクエストへのフォールバックコード
const rejectCode = 3

// プール枯渇時のReply-Message
const exhaustedReplyMessage = "IP Address in pool is exhausted"

// DialogStore はディスパッチャが使用するダイアログストア操作。
type DialogStore interface {
	Put(ctx context.Context, key string, rec *dialog.Record) error
	Get(ctx context.Context, key string) (*dialog.Record, error)
	Delete(ctx context.Context, key string) error
}

// Dispatcher は1リクエストの処理パイプライン
// （検証 → 重複検出 → ルールマッチ → 割当/解放 → 応答構築）を実行する。
type Dispatcher struct {
	scn     *scenario.Scenario
	matcher rules.Matcher
	pools   *pool.Manager
	store   DialogStore
	builder *reply.Builder
	fields  *logging.CommonFields
}

// NewDispatcher はDispatcherを生成する。
func NewDispatcher(scn *scenario.Scenario, pools *pool.Manager, store DialogStore, masker *logging.Masker) *Dispatcher {
	return &Dispatcher{
		scn:     scn,
		matcher: rules.NewMatcher(),
		pools:   pools,
		store:   store,
		builder: reply.NewBuilder(countingAllocator{pools: pools}),
		fields:  logging.NewCommonFields(masker),
	}
}

// countingAllocator は割当メトリクスを記録するAllocatorラッパー。
type countingAllocator struct {
	pools *pool.Manager
}

func (a countingAllocator) Allocate(poolName string, family pool.Family, dialogKey string) (string, error) {
	address, err := a.pools.Allocate(poolName, family, dialogKey)
	if err != nil {
		return "", err
	}
	metrics.PoolAllocationsTotal.WithLabelValues(poolName, string(family)).Inc()
	return address, nil
}

// HandleAuth はAccess-Requestを処理する。
func (d *Dispatcher) HandleAuth(w radius.ResponseWriter, r *radius.Request) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)
	metrics.RequestsTotal.WithLabelValues(scenario.CategoryAuth, strconv.Itoa(int(r.Code))).Inc()

	// Message-Authenticator付きの場合のみ検証する（RFC 2869）
	if radpkt.HasMessageAuthenticator(r.Packet) &&
		!radpkt.VerifyMessageAuthenticator(r.Packet, r.Secret) {
		slog.Warn("message authenticator mismatch",
			"event_id", "RADIUS_AUTH_ERR",
			"trace_id", traceID,
			"src_ip", srcIP,
		)
		metrics.DroppedTotal.WithLabelValues(scenario.CategoryAuth, "authenticator_mismatch").Inc()
		return
	}

	view := radpkt.NewPacketView(r.Packet)
	key, hasKey := dialog.DeriveKey(&d.scn.Storage, scenario.CategoryAuth, view)

	if hasKey && d.replayIfDuplicate(w, r, scenario.CategoryAuth, key, traceID, srcIP) {
		return
	}

	userName, _ := view.FirstValue("User-Name")
	poolName, _ := d.matcher.Match(view, d.scn.PoolMatchRules)

	replyName, matched := d.matcher.Match(view, d.scn.ReplyMatchRules[scenario.CategoryAuth])
	if !matched {
		slog.Info("no reply rule matched, rejecting",
			"event_id", "RULE_NO_MATCH",
			"trace_id", traceID,
			"src_ip", srcIP,
			d.fields.WithUserName(userName),
		)
		d.send(w, r, scenario.CategoryAuth, key, hasKey, rejectCode, nil, traceID)
		return
	}

	def, ok := d.scn.ReplyDefinition(scenario.CategoryAuth, replyName)
	if !ok {
		slog.Error("reply definition missing",
			"event_id", "SCENARIO_ERR",
			"trace_id", traceID,
			"reply_name", replyName,
		)
		d.send(w, r, scenario.CategoryAuth, key, hasKey, rejectCode, nil, traceID)
		return
	}

	// キーを導出できないリクエストの割当は送信元で束縛する
	allocKey := key
	if !hasKey {
		allocKey = srcIP + "/" + userName
	}

	attrs, err := d.builder.Build(def, view, poolName, allocKey)
	if err != nil {
		if errors.Is(err, apperr.ErrPoolExhausted) {
			slog.Warn("pool exhausted",
				"event_id", "POOL_EXHAUSTED",
				"trace_id", traceID,
				"pool", poolName,
				d.fields.WithUserName(userName),
			)
			exhausted := []radpkt.ResolvedAttribute{{Name: "Reply-Message", Value: exhaustedReplyMessage}}
			d.send(w, r, scenario.CategoryAuth, key, hasKey, rejectCode, exhausted, traceID)
			return
		}
		slog.Error("reply directive resolution failed",
			"event_id", "SCENARIO_ERR",
			"trace_id", traceID,
			"reply_name", replyName,
			"error", err.Error(),
		)
		d.send(w, r, scenario.CategoryAuth, key, hasKey, rejectCode, nil, traceID)
		return
	}

	d.send(w, r, scenario.CategoryAuth, key, hasKey, def.Code, attrs, traceID)

	slog.Info("access request processed",
		"event_id", "AUTH_OK",
		"trace_id", traceID,
		"src_ip", srcIP,
		"reply_name", replyName,
		"code", def.Code,
		d.fields.WithUserName(userName),
	)
}

// HandleAcct はAccounting-Requestを処理する。
// Request Authenticator検証後は処理エラーがあっても必ず応答を返す。
func (d *Dispatcher) HandleAcct(w radius.ResponseWriter, r *radius.Request) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)
	metrics.RequestsTotal.WithLabelValues(scenario.CategoryAcct, strconv.Itoa(int(r.Code))).Inc()

	if !radpkt.VerifyRequestAuthenticator(r.Packet, r.Secret) {
		slog.Warn("request authenticator mismatch",
			"event_id", "RADIUS_AUTH_ERR",
			"trace_id", traceID,
			"src_ip", srcIP,
		)
		metrics.DroppedTotal.WithLabelValues(scenario.CategoryAcct, "authenticator_mismatch").Inc()
		return
	}

	view := radpkt.NewPacketView(r.Packet)
	key, hasKey := dialog.DeriveKey(&d.scn.Storage, scenario.CategoryAcct, view)

	if hasKey && d.replayIfDuplicate(w, r, scenario.CategoryAcct, key, traceID, srcIP) {
		return
	}

	statusType, _ := view.FirstValue("Acct-Status-Type")
	poolName, _ := d.matcher.Match(view, d.scn.PoolMatchRules)

	switch statusType {
	case acctStatusStart:
		if poolName != "" && hasKey {
			d.allocateForStart(poolName, key, traceID)
		}
	case acctStatusStop:
		d.releaseSession(view, traceID)
	}

	// Stopで解放済みのダイアログは再保存しない
	recordKey := hasKey && statusType != acctStatusStop

	replyCode := 5
	var attrs []radpkt.ResolvedAttribute
	if replyName, ok := d.matcher.Match(view, d.scn.ReplyMatchRules[scenario.CategoryAcct]); ok {
		if def, found := d.scn.ReplyDefinition(scenario.CategoryAcct, replyName); found {
			built, err := d.builder.Build(def, view, poolName, key)
			if err != nil {
				// 応答は必ず返す
				slog.Error("reply directive resolution failed",
					"event_id", "SCENARIO_ERR",
					"trace_id", traceID,
					"reply_name", replyName,
					"error", err.Error(),
				)
			} else {
				replyCode = def.Code
				attrs = built
			}
		}
	}

	d.send(w, r, scenario.CategoryAcct, key, recordKey, replyCode, attrs, traceID)

	slog.Info("accounting request processed",
		"event_id", "ACCT_OK",
		"trace_id", traceID,
		"src_ip", srcIP,
		"acct_status_type", statusType,
	)
}

// HandleCoA はCoA-Requestを処理する。検証通過後は常にCoA-ACKを返す。
func (d *Dispatcher) HandleCoA(w radius.ResponseWriter, r *radius.Request) {
	d.handleChangeRequest(w, r, scenario.CategoryCoA, 44, false)
}

// HandleDisconnect はDisconnect-Requestを処理する。
// 検証通過後にセッションの割当を解放し、Disconnect-ACKを返す。
func (d *Dispatcher) HandleDisconnect(w radius.ResponseWriter, r *radius.Request) {
	d.handleChangeRequest(w, r, scenario.CategoryDisc, 41, true)
}

// handleChangeRequest はCoA/Disconnectの共通処理。
func (d *Dispatcher) handleChangeRequest(w radius.ResponseWriter, r *radius.Request, category string, ackCode int, release bool) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)
	metrics.RequestsTotal.WithLabelValues(category, strconv.Itoa(int(r.Code))).Inc()

	if !radpkt.VerifyRequestAuthenticator(r.Packet, r.Secret) {
		slog.Warn("request authenticator mismatch",
			"event_id", "RADIUS_AUTH_ERR",
			"trace_id", traceID,
			"src_ip", srcIP,
		)
		metrics.DroppedTotal.WithLabelValues(category, "authenticator_mismatch").Inc()
		return
	}

	view := radpkt.NewPacketView(r.Packet)
	key, hasKey := dialog.DeriveKey(&d.scn.Storage, category, view)

	if hasKey && d.replayIfDuplicate(w, r, category, key, traceID, srcIP) {
		return
	}

	if release {
		d.releaseSession(view, traceID)
	}

	d.send(w, r, category, key, hasKey, ackCode, nil, traceID)

	slog.Info("change request processed",
		"event_id", "COA_OK",
		"trace_id", traceID,
		"src_ip", srcIP,
		"category", category,
	)
}

// HandleStatusServer はStatus-Server(Code=12)へのヘルスチェック応答を返す（RFC 5997）。
func (d *Dispatcher) HandleStatusServer(w radius.ResponseWriter, r *radius.Request, responseCode radius.Code) {
	traceID := uuid.New().String()
	srcIP := extractIP(r.RemoteAddr)

	if !radpkt.VerifyMessageAuthenticator(r.Packet, r.Secret) {
		slog.Warn("status-server message authenticator mismatch",
			"event_id", "RADIUS_AUTH_ERR",
			"trace_id", traceID,
			"src_ip", srcIP,
		)
		return
	}

	resp, err := radpkt.BuildReply(r.Packet, responseCode, nil)
	if err != nil {
		slog.Error("status-server response build failed",
			"event_id", "SYS_ERR",
			"trace_id", traceID,
			"error", err.Error(),
		)
		return
	}
	if err := w.Write(resp); err != nil {
		slog.Error("status-server response send failed",
			"event_id", "PKT_SEND_ERR",
			"trace_id", traceID,
			"error", err.Error(),
		)
		return
	}

	slog.Info("status-server answered",
		"event_id", "STATUS_OK",
		"trace_id", traceID,
		"src_ip", srcIP,
	)
}

// replayIfDuplicate は重複リクエストを検出し、キャッシュ済み応答内容を再送する。
// 再送した場合はtrueを返す。ストア障害時は重複検出を省略する（縮退運転）。
func (d *Dispatcher) replayIfDuplicate(w radius.ResponseWriter, r *radius.Request, category, key, traceID, srcIP string) bool {
	rec, err := d.store.Get(context.Background(), key)
	if err != nil {
		if errors.Is(err, apperr.ErrDialogNotFound) {
			return false
		}
		slog.Warn("duplicate detection degraded",
			"event_id", "STORE_GET_ERR",
			"trace_id", traceID,
			"dialog_key", key,
			"error", err.Error(),
		)
		metrics.StoreErrorsTotal.WithLabelValues("GET").Inc()
		return false
	}

	if !rec.IsDuplicate(r.Packet.Identifier, r.Packet.Authenticator) {
		return false
	}

	code, err := radpkt.CodeForInt(rec.ReplyCode)
	if err != nil {
		return false
	}
	resp, err := radpkt.BuildReply(r.Packet, code, rec.ReplyAttrs)
	if err != nil {
		slog.Error("cached response rebuild failed",
			"event_id", "SYS_ERR",
			"trace_id", traceID,
			"dialog_key", key,
			"error", err.Error(),
		)
		return false
	}
	if err := w.Write(resp); err != nil {
		slog.Error("response send failed",
			"event_id", "PKT_SEND_ERR",
			"trace_id", traceID,
			"error", err.Error(),
		)
		return true
	}

	slog.Info("retransmission answered from dialog cache",
		"event_id", "PKT_DUP",
		"trace_id", traceID,
		"src_ip", srcIP,
		"dialog_key", key,
	)
	metrics.DuplicatesTotal.WithLabelValues(category).Inc()
	metrics.ResponsesTotal.WithLabelValues(category, strconv.Itoa(rec.ReplyCode)).Inc()
	return true
}

// send は応答を構築・送信し、キーがあればダイアログレコードを保存する。
func (d *Dispatcher) send(w radius.ResponseWriter, r *radius.Request, category, key string, recordKey bool, replyCode int, attrs []radpkt.ResolvedAttribute, traceID string) {
	code, err := radpkt.CodeForInt(replyCode)
	if err != nil {
		slog.Error("unsupported reply code",
			"event_id", "SCENARIO_ERR",
			"trace_id", traceID,
			"code", replyCode,
		)
		metrics.DroppedTotal.WithLabelValues(category, "invalid_reply_code").Inc()
		return
	}

	resp, err := radpkt.BuildReply(r.Packet, code, attrs)
	if err != nil {
		slog.Error("response build failed",
			"event_id", "SYS_ERR",
			"trace_id", traceID,
			"error", err.Error(),
		)
		metrics.DroppedTotal.WithLabelValues(category, "encode_error").Inc()
		return
	}

	if err := w.Write(resp); err != nil {
		slog.Error("response send failed",
			"event_id", "PKT_SEND_ERR",
			"trace_id", traceID,
			"error", err.Error(),
		)
		return
	}
	metrics.ResponsesTotal.WithLabelValues(category, strconv.Itoa(replyCode)).Inc()

	if recordKey {
		d.recordDialog(r, category, key, replyCode, attrs)
	}
}

// recordDialog は処理結果をダイアログレコードとして保存する。
// 保存失敗は縮退扱いとし、応答送信には影響させない。
func (d *Dispatcher) recordDialog(r *radius.Request, category, key string, replyCode int, attrs []radpkt.ResolvedAttribute) {
	now := time.Now().UTC()
	rec := &dialog.Record{
		Category:   category,
		ReplyCode:  replyCode,
		ReplyAttrs: attrs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec.SetRequest(int(r.Code), r.Packet.Identifier, r.Packet.Authenticator)

	for _, b := range d.pools.Bindings() {
		if b.DialogKey != key {
			continue
		}
		rec.Pool = b.Pool
		if rec.Addresses == nil {
			rec.Addresses = make(map[string]string)
		}
		rec.Addresses[b.Family] = b.Address
	}

	if err := d.store.Put(context.Background(), key, rec); err != nil {
		slog.Warn("dialog record upsert failed",
			"event_id", "STORE_PUT_ERR",
			"dialog_key", key,
			"error", err.Error(),
		)
		metrics.StoreErrorsTotal.WithLabelValues("SET").Inc()
	}
}

// allocateForStart はAccounting-Startに対しマッチしたプールの全ファミリから割当を行う。
func (d *Dispatcher) allocateForStart(poolName, key, traceID string) {
	st, ok := d.pools.PoolStatus(poolName)
	if !ok {
		return
	}
	for family := range st.Families {
		if _, err := d.pools.Allocate(poolName, pool.Family(family), key); err != nil {
			slog.Warn("accounting start allocation failed",
				"event_id", "POOL_EXHAUSTED",
				"trace_id", traceID,
				"pool", poolName,
				"family", family,
				"error", err.Error(),
			)
			continue
		}
		metrics.PoolAllocationsTotal.WithLabelValues(poolName, family).Inc()
	}
}

// releaseSession はStop/Disconnectに対応する割当とダイアログレコードを解放する。
// 該当パケットから導出できる全カテゴリのキーを対象とする（存在しないキーはno-op）。
func (d *Dispatcher) releaseSession(view *radpkt.PacketView, traceID string) {
	for _, category := range []string{scenario.CategoryAcct, scenario.CategoryAuth} {
		key, ok := dialog.DeriveKey(&d.scn.Storage, category, view)
		if !ok {
			continue
		}

		for _, b := range d.pools.Release(key) {
			slog.Info("address released",
				"event_id", "POOL_RELEASE",
				"trace_id", traceID,
				"pool", b.Pool,
				"dialog_key", b.DialogKey,
				"address", b.Address,
			)
			metrics.PoolReleasesTotal.WithLabelValues(b.Pool).Inc()
		}

		if err := d.store.Delete(context.Background(), key); err != nil {
			slog.Warn("dialog record delete failed",
				"event_id", "STORE_DEL_ERR",
				"dialog_key", key,
				"error", err.Error(),
			)
			metrics.StoreErrorsTotal.WithLabelValues("DEL").Inc()
		}
	}
}

// extractIP はnet.AddrからIPアドレス文字列を抽出する
func extractIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	if udpAddr, ok := addr.(*net.UDPAddr); ok {
		return udpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return ""
	}
	return host
}
