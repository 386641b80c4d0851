// Package bypass recognises bot-protection walls in fetched pages, so a
// challenge page is never mistaken for article content.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of an HTTP response the detectors look at.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detection is the verdict of a detector.
type Detection struct {
	Blocked bool
	Source  string // e.g. "Cloudflare", "Akamai", "PerimeterX", "DataDome"
}

// Detector examines a response and reports whether a bot protection
// mechanism challenged or blocked it.
type Detector func(res Response) Detection

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs res through detectors and returns the first positive verdict.
func Analyze(res Response, detectors []Detector) Detection {
	for _, d := range detectors {
		if v := d(res); v.Blocked {
			return v
		}
	}
	return Detection{}
}

func header(h http.Header, key string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	// headers built by hand may not be canonicalised
	for k, vals := range h {
		if strings.EqualFold(k, key) && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func bodyHas(body []byte, markers ...string) bool {
	for _, m := range markers {
		if bytes.Contains(body, []byte(m)) {
			return true
		}
	}
	return false
}

func detectCloudflare(res Response) Detection {
	if res.StatusCode != http.StatusForbidden && res.StatusCode != http.StatusServiceUnavailable {
		return Detection{}
	}
	if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "cloudflare") ||
		bodyHas(res.Body, "cf-browser-verification", "cloudflare-nginx", "cf-turnstile", "Attention Required! | Cloudflare") {
		return Detection{Blocked: true, Source: "Cloudflare"}
	}
	return Detection{}
}

func detectAkamai(res Response) Detection {
	if res.StatusCode != http.StatusForbidden {
		return Detection{}
	}
	if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "akamai") {
		return Detection{Blocked: true, Source: "Akamai"}
	}
	// generic "Reference #" block page
	if bodyHas(res.Body, "Reference #") && bodyHas(res.Body, "Access Denied") {
		return Detection{Blocked: true, Source: "Akamai"}
	}
	return Detection{}
}

func detectDataDome(res Response) Detection {
	if res.StatusCode != http.StatusForbidden {
		return Detection{}
	}
	if strings.Contains(strings.ToLower(header(res.Headers, "Server")), "datadome") ||
		header(res.Headers, "X-DataDome") != "" ||
		header(res.Headers, "X-DataDome-Response") != "" ||
		bodyHas(res.Body, "geo.captcha-delivery.com", "datadome") {
		return Detection{Blocked: true, Source: "DataDome"}
	}
	return Detection{}
}

func detectPerimeterX(res Response) Detection {
	if res.StatusCode != http.StatusForbidden {
		return Detection{}
	}
	if header(res.Headers, "X-Px-Captcha") != "" ||
		bodyHas(res.Body, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return Detection{Blocked: true, Source: "PerimeterX"}
	}
	return Detection{}
}
