// Package main はradscen向けの簡易テストクライアント。
// RADIUSリクエストの送信と監視APIの参照を行う。
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
)

const requestTimeout = 3 * time.Second

func main() {
	var (
		command   = flag.String("command", "auth", "auth | acct-start | acct-stop | pools | dialogs")
		server    = flag.String("server", "127.0.0.1:1812", "RADIUS認証サーバーアドレス")
		acctAddr  = flag.String("acct-server", "127.0.0.1:1813", "RADIUSアカウンティングサーバーアドレス")
		apiURL    = flag.String("api", "http://127.0.0.1:4711", "監視APIのベースURL")
		secret    = flag.String("secret", "testsecret", "RADIUS共有シークレット")
		userName  = flag.String("user", "alice", "User-Name")
		password  = flag.String("password", "password", "User-Password")
		sessionID = flag.String("session", "sess-0001", "Acct-Session-Id")
	)
	flag.Parse()

	var err error
	switch *command {
	case "auth":
		err = sendAuth(*server, *secret, *userName, *password)
	case "acct-start":
		err = sendAcct(*acctAddr, *secret, *userName, *sessionID, rfc2866.AcctStatusType_Value_Start)
	case "acct-stop":
		err = sendAcct(*acctAddr, *secret, *userName, *sessionID, rfc2866.AcctStatusType_Value_Stop)
	case "pools":
		err = inspect(*apiURL, "/api/v1/pools")
	case "dialogs":
		err = inspect(*apiURL, "/api/v1/dialogs")
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// sendAuth はAccess-Requestを送信し応答を表示する。
func sendAuth(addr, secret, userName, password string) error {
	packet := radius.New(radius.CodeAccessRequest, []byte(secret))
	if err := rfc2865.UserName_SetString(packet, userName); err != nil {
		return err
	}
	if err := rfc2865.UserPassword_SetString(packet, password); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	response, err := radius.Exchange(ctx, packet, addr)
	if err != nil {
		return fmt.Errorf("exchange: %w", err)
	}

	fmt.Println("code:", response.Code)
	if addr, err := rfc2865.FramedIPAddress_Lookup(response); err == nil {
		fmt.Println("framed-ip-address:", addr)
	}
	if msg, err := rfc2865.ReplyMessage_LookupString(response); err == nil {
		fmt.Println("reply-message:", msg)
	}
	return nil
}

// sendAcct はAccounting-Requestを送信し応答を表示する。
func sendAcct(addr, secret, userName, sessionID string, statusType rfc2866.AcctStatusType) error {
	packet := radius.New(radius.CodeAccountingRequest, []byte(secret))
	// Accounting-RequestのAuthenticatorはゼロ埋めの状態から計算される
	packet.Authenticator = [16]byte{}
	if err := rfc2865.UserName_SetString(packet, userName); err != nil {
		return err
	}
	if err := rfc2866.AcctSessionID_SetString(packet, sessionID); err != nil {
		return err
	}
	if err := rfc2866.AcctStatusType_Set(packet, statusType); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	response, err := radius.Exchange(ctx, packet, addr)
	if err != nil {
		return fmt.Errorf("exchange: %w", err)
	}

	fmt.Println("code:", response.Code)
	return nil
}

// inspect は監視APIのレスポンスを表示する。
func inspect(baseURL, path string) error {
	client := resty.New().SetTimeout(requestTimeout)

	resp, err := client.R().Get(baseURL + path)
	if err != nil {
		return fmt.Errorf("api request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("api status %d: %s", resp.StatusCode(), resp.Body())
	}

	fmt.Println(string(resp.Body()))
	return nil
}
