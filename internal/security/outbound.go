// Package security はIdPへの外部通信と、IdPから受け取るプロフィール値の防御を提供する。
package security

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"
	"golang.org/x/net/idna"
)

// OutboundGuard はIdPのディスカバリ文書とJWKSを取得する外部通信を制限する。
type OutboundGuard interface {
	// NewSafeClient は内部ネットワーク宛ての接続を拒否するHTTPクライアントを返す。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateIssuerURL は発行者URLをDNS解決なしで静的に検証する。
	ValidateIssuerURL(rawURL string) error
}

// 発行者URLに関する検証エラー
var (
	ErrInsecureIssuer = errors.New("issuer must use https")
	ErrBlockedIssuer  = errors.New("issuer host is not allowed")
)

// internalNetworks は発行者として許可しないアドレス範囲。
var internalNetworks = mustParseCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16", // クラウドメタデータを含む
	"100.64.0.0/10",
	"0.0.0.0/8",
	"::1/128",
	"fe80::/10",
	"fc00::/7",
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, c := range cidrs {
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR %s: %v", c, err))
		}
		nets = append(nets, n)
	}
	return nets
}

type outboundGuard struct{}

// NewOutboundGuard はOutboundGuardを生成する。
func NewOutboundGuard() OutboundGuard {
	return outboundGuard{}
}

// NewSafeClient はhttps:443のみを許可するsafeurlクライアントを返す。
// 接続先IPはDNS解決後にDialerで検証されるため、DNSリバインディングも防ぐ。
func (outboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	cfg := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(cfg).Client
}

// ValidateIssuerURL はスキームがhttpsで、ホストが内部アドレスやlocalhostでないことを確認する。
// ホスト名はIDNAで正規化してから照合する。
func (outboundGuard) ValidateIssuerURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid issuer URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("%w: %q", ErrInsecureIssuer, rawURL)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrBlockedIssuer)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isInternalIP(ip) {
			return fmt.Errorf("%w: %s", ErrBlockedIssuer, ip)
		}
		return nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedIssuer, err)
	}
	ascii = strings.TrimSuffix(strings.ToLower(ascii), ".")
	if ascii == "localhost" || strings.HasSuffix(ascii, ".localhost") {
		return fmt.Errorf("%w: %s", ErrBlockedIssuer, host)
	}

	return nil
}

func isInternalIP(ip net.IP) bool {
	for _, n := range internalNetworks {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
