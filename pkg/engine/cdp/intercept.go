package cdp

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-desk/pkg/host"
	"github.com/joeydtaylor/steeze-desk/pkg/scheme"
	"github.com/joeydtaylor/steeze-desk/pkg/wire"
)

// vhosts maps engine-visible origins to internal registrations.
type vhosts struct {
	byOrigin map[string]scheme.Registration // "https://local.app" -> app://local
	byScheme map[string]scheme.Registration // http(s) registrations with an empty domain
	regs     []scheme.Registration
}

func native(s string) bool { return s == "http" || s == "https" }

// engineOrigin is where the engine loads a registration from.
func engineOrigin(r scheme.Registration) string {
	if native(r.Scheme) {
		return r.Scheme + "://" + r.Domain
	}
	if r.Domain == "" {
		return "https://" + r.Scheme
	}
	return "https://" + r.Domain + "." + r.Scheme
}

func newVhosts(reg *scheme.Registry) *vhosts {
	v := &vhosts{
		byOrigin: map[string]scheme.Registration{},
		byScheme: map[string]scheme.Registration{},
	}
	for _, r := range reg.Internal() {
		v.regs = append(v.regs, r)
		if native(r.Scheme) && r.Domain == "" {
			v.byScheme[r.Scheme] = r
			continue
		}
		v.byOrigin[engineOrigin(r)] = r
	}
	return v
}

func (v *vhosts) patterns() []*fetch.RequestPattern {
	out := make([]*fetch.RequestPattern, 0, len(v.regs))
	for _, s := range v.patternStrings() {
		out = append(out, &fetch.RequestPattern{URLPattern: s, RequestStage: fetch.RequestStageRequest})
	}
	return out
}

func (v *vhosts) patternStrings() []string {
	out := make([]string, 0, len(v.regs))
	for _, r := range v.regs {
		if native(r.Scheme) && r.Domain == "" {
			out = append(out, r.Scheme+"://*")
			continue
		}
		out = append(out, engineOrigin(r)+"/*")
	}
	sort.Strings(out)
	return out
}

// toEngine rewrites an app URL (app://local/x) to the URL the engine loads.
// An exact (scheme, domain) registration beats one with an empty domain.
func (v *vhosts) toEngine(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || native(u.Scheme) {
		return raw
	}
	sch, host := strings.ToLower(u.Scheme), strings.ToLower(u.Hostname())
	var wildcard *scheme.Registration
	for i := range v.regs {
		r := &v.regs[i]
		if r.Scheme != sch {
			continue
		}
		if r.Domain == host {
			return rebase(u, engineOrigin(*r))
		}
		if r.Domain == "" && wildcard == nil {
			wildcard = r
		}
	}
	if wildcard != nil {
		return rebase(u, engineOrigin(*wildcard))
	}
	return raw
}

func rebase(u *url.URL, origin string) string {
	o, _ := url.Parse(origin)
	u.Scheme, u.Host = o.Scheme, o.Host
	return u.String()
}

// fromEngine maps an engine URL back to its registration and app URL.
func (v *vhosts) fromEngine(raw string) (scheme.Registration, string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return scheme.Registration{}, "", false
	}
	origin := strings.ToLower(u.Scheme + "://" + u.Host)
	r, ok := v.byOrigin[origin]
	if !ok {
		r, ok = v.byScheme[strings.ToLower(u.Scheme)]
		if !ok {
			return scheme.Registration{}, "", false
		}
		return r, raw, true
	}
	if !native(r.Scheme) {
		u.Scheme, u.Host = r.Scheme, r.Domain
	}
	return r, u.String(), true
}

// listen returns the target event listener of one tab.
func (e *Engine) listen(tab context.Context, vh *vhosts, onLoad func(host.LoadStart)) func(any) {
	return func(ev any) {
		switch ev := ev.(type) {
		case *fetch.EventRequestPaused:
			go e.serve(tab, vh, ev)
		case *page.EventFrameNavigated:
			if onLoad == nil || ev.Frame == nil {
				return
			}
			u := ev.Frame.URL
			if _, appURL, ok := vh.fromEngine(u); ok {
				u = appURL
			}
			onLoad(host.LoadStart{URL: u, FrameID: string(ev.Frame.ID), MainFrame: ev.Frame.ParentID == ""})
		}
	}
}

func (e *Engine) serve(tab context.Context, vh *vhosts, ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(tab)
	ctx := cdp.WithExecutor(tab, c.Target)

	resp, ok := respond(ctx, vh, ev.Request)
	if !ok {
		if err := fetch.ContinueRequest(ev.RequestID).Do(ctx); err != nil {
			e.log.Warn("continue request failed", zap.String("url", ev.Request.URL), zap.Error(err))
		}
		return
	}
	if err := fulfill(ev.RequestID, resp).Do(ctx); err != nil {
		e.log.Warn("fulfill request failed", zap.String("url", ev.Request.URL), zap.Error(err))
	}
}

// respond answers a paused request from its registration's handler. ok=false
// means the engine should let the request continue.
func respond(ctx context.Context, vh *vhosts, r *network.Request) (*wire.Response, bool) {
	if r == nil {
		return nil, false
	}
	reg, appURL, ok := vh.fromEngine(r.URL + r.URLFragment)
	if !ok || reg.External {
		return nil, false
	}
	h := reg.Factory.Create(reg.Scheme, reg.Domain)
	if h == nil {
		return nil, false
	}
	body, err := postData(r)
	if err != nil {
		return wire.Text(http.StatusBadRequest, err.Error()), true
	}
	req, err := wire.NewRequest(r.Method, appURL, headers(r.Headers), body)
	if err != nil {
		return wire.Text(http.StatusBadRequest, err.Error()), true
	}
	resp := h.Handle(ctx, req)
	if resp == nil {
		return wire.Text(http.StatusInternalServerError, "no response"), true
	}
	return resp, true
}

func headers(h network.Headers) http.Header {
	out := http.Header{}
	for k, v := range h {
		out.Set(k, fmt.Sprint(v))
	}
	return out
}

func postData(r *network.Request) ([]byte, error) {
	var body []byte
	for _, e := range r.PostDataEntries {
		if e == nil || e.Bytes == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(e.Bytes)
		if err != nil {
			return nil, fmt.Errorf("post data: %w", err)
		}
		body = append(body, b...)
	}
	return body, nil
}

func fulfill(id fetch.RequestID, resp *wire.Response) *fetch.FulfillRequestParams {
	hdr := resp.Headers()
	names := make([]string, 0, len(hdr))
	for k := range hdr {
		names = append(names, k)
	}
	sort.Strings(names)
	entries := make([]*fetch.HeaderEntry, 0, len(names))
	for _, k := range names {
		for _, v := range hdr[k] {
			entries = append(entries, &fetch.HeaderEntry{Name: k, Value: v})
		}
	}
	return fetch.FulfillRequest(id, int64(resp.Status)).
		WithResponseHeaders(entries).
		WithResponsePhrase(resp.StatusText()).
		WithBody(base64.StdEncoding.EncodeToString(resp.Body))
}
