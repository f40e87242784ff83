package model

import (
	"github.com/go-rod/rod/lib/proto"
)

// Cookie is the storage form of one browser cookie. Expires is unix
// milliseconds, zero for session cookies.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Path     string `json:"path,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Expires  int64  `json:"expires,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
	SameSite string `json:"sameSite,omitempty"`
}

func CookiesFromBrowser(in []*proto.NetworkCookie) []Cookie {
	out := make([]Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		var expires int64
		if c.Expires > 0 {
			expires = int64(float64(c.Expires) * 1000)
		}
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSiteToString(c.SameSite),
		})
	}
	return out
}

func CookiesToBrowser(in []Cookie) []*proto.NetworkCookieParam {
	out := make([]*proto.NetworkCookieParam, 0, len(in))
	for _, c := range in {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSiteFromString(c.SameSite),
		}
		if c.Expires > 0 {
			p.Expires = proto.TimeSinceEpoch(float64(c.Expires) / 1000)
		}
		out = append(out, p)
	}
	return out
}

func sameSiteToString(s proto.NetworkCookieSameSite) string {
	switch s {
	case proto.NetworkCookieSameSiteLax:
		return "lax"
	case proto.NetworkCookieSameSiteStrict:
		return "strict"
	case proto.NetworkCookieSameSiteNone:
		return "none"
	default:
		return ""
	}
}

func sameSiteFromString(s string) proto.NetworkCookieSameSite {
	switch s {
	case "lax":
		return proto.NetworkCookieSameSiteLax
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "none":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}
