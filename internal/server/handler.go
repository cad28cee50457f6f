package server

import (
	"log/slog"

	"layeh.com/radius"
)

// Handler は1リスナー分のRADIUSハンドラ。
// Status-Serverへの応答コードはリスナー種別（認証/アカウンティング）で異なる。
type Handler struct {
	dispatcher *Dispatcher
	statusCode radius.Code
}

// NewHandler は新しいHandlerを生成する
func NewHandler(dispatcher *Dispatcher, statusCode radius.Code) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		statusCode: statusCode,
	}
}

// ServeRADIUS はRADIUSリクエストをコード別にディスパッチする
func (h *Handler) ServeRADIUS(w radius.ResponseWriter, r *radius.Request) {
	switch r.Code {
	case radius.CodeAccessRequest:
		h.dispatcher.HandleAuth(w, r)

	case radius.CodeAccountingRequest:
		h.dispatcher.HandleAcct(w, r)

	case radius.CodeCoARequest:
		h.dispatcher.HandleCoA(w, r)

	case radius.CodeDisconnectRequest:
		h.dispatcher.HandleDisconnect(w, r)

	case radius.CodeStatusServer:
		h.dispatcher.HandleStatusServer(w, r, h.statusCode)

	default:
		slog.Warn("unsupported RADIUS code",
			"event_id", "RADIUS_UNKNOWN_CODE",
			"src_ip", extractIP(r.RemoteAddr),
			"code", r.Code,
		)
	}
}
