// Package dialog はダイアログ（セッション相関）レコードのキー導出と永続化を提供する。
package dialog

import (
	"strings"

	"github.com/yamorin9/radscen/internal/scenario"
)

// AttributeSource はキー導出元のアトリビュート参照。
type AttributeSource interface {
	// FirstValue は指定名のアトリビュートの最初の値を返す。
	FirstValue(name string) (string, bool)
}

// DeriveKey はストレージ設定とリクエスト内容からダイアログキーを導出する。
// キー形式: <prefix><category>:<設定順に連結したアトリビュート値>
// カテゴリに導出アトリビュートが未設定、またはリクエストに必要な
// アトリビュートが欠けている場合はok=falseを返す（ダイアログ追跡なし）。
func DeriveKey(storage *scenario.StorageConfig, category string, src AttributeSource) (string, bool) {
	names := storage.AttributesFor(category)
	if len(names) == 0 {
		return "", false
	}

	values := make([]string, 0, len(names))
	for _, name := range names {
		v, ok := src.FirstValue(name)
		if !ok {
			return "", false
		}
		values = append(values, v)
	}

	return storage.Prefix + category + ":" + strings.Join(values, ":"), true
}
