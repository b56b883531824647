package security

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxDisplayNameRunes は保存する表示名の最大文字数。
const maxDisplayNameRunes = 100

// maxUnescapePasses は多重にエンコードされた実体参照を展開する最大回数。
const maxUnescapePasses = 3

// angleBrackets は無害化後にも残った山括弧を取り除く。
var angleBrackets = strings.NewReplacer("<", "", ">", "")

// ProfileSanitizer はIdPから受け取った表示名とプロフィール画像URLを保存前に無害化する。
// 管理画面でユーザー一覧を表示するため、HTMLとして解釈される値を残さない。
type ProfileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はタグを一切許可しないポリシーでProfileSanitizerを生成する。
func NewProfileSanitizer() *ProfileSanitizer {
	return &ProfileSanitizer{policy: bluemonday.StrictPolicy()}
}

// DisplayName はタグを除去し、空白を詰めたプレーンテキストを返す。
// 実体参照で書かれたタグも展開してから除去するため、戻り値に山括弧は含まれない。
func (s *ProfileSanitizer) DisplayName(raw string) string {
	text := raw
	for i := 0; i < maxUnescapePasses; i++ {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}

	text = html.UnescapeString(s.policy.Sanitize(text))
	text = angleBrackets.Replace(text)
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > maxDisplayNameRunes {
		text = string(runes[:maxDisplayNameRunes])
	}
	return text
}

// PictureURL はhttpsの絶対URLのみを返す。それ以外は空文字列を返す。
func (s *ProfileSanitizer) PictureURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return ""
	}
	return u.String()
}
