// Package whttp is a thin wrapper around net/http used by all upstream
// clients. It keeps request construction in one place, supports an optional
// retrying client, and extracts the <title> of HTML bodies so that CDN/WAF
// error pages show up readable in logs instead of as raw markup.
package whttp

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html"
)

type WHTTPHeader struct {
	Name  string
	Value string
}

type WHTTPReq struct {
	URL     string
	Method  string
	Body    string
	Headers []WHTTPHeader
}

type WHTTPRes struct {
	StatusCode     int
	ResponseLength int
	HTTPTitle      string
	BodyString     string
}

var defaultClient = &http.Client{}

// SetupProxy routes the shared default client through an HTTP proxy.
// Useful for debugging upstream traffic.
func SetupProxy(proxy string) error {
	proxyURL, err := url.Parse(proxy)
	if err != nil {
		return err
	}
	defaultClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	return nil
}

// SendHTTPRequest performs a request with the given retrying client, or the
// shared non-retrying default when client is nil.
func SendHTTPRequest(wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	var body io.Reader
	if wReq.Body != "" {
		body = strings.NewReader(wReq.Body)
	}

	req, err := http.NewRequest(wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	// Set common headers
	req.Header.Set("User-Agent", "tangdesk/1.0 (+https://tangtown.xyz)")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en")

	// Set custom headers
	for _, h := range wReq.Headers {
		req.Header.Set(h.Name, h.Value)
	}

	var resp *http.Response
	if client != nil {
		rReq, err := retryablehttp.FromRequest(req)
		if err != nil {
			return nil, err
		}
		resp, err = client.Do(rReq)
		if err != nil {
			return nil, err
		}
	} else {
		resp, err = defaultClient.Do(req)
		if err != nil {
			return nil, err
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}

	wRes := &WHTTPRes{
		StatusCode: resp.StatusCode,
		BodyString: string(bodyBytes),
	}

	// Upstreams answer JSON; an HTML body means a proxy or WAF got in the way.
	if looksLikeHTML(wRes.BodyString) {
		if title, ok := getHTMLTitle(wRes.BodyString); ok {
			wRes.HTTPTitle = strings.ToValidUTF8(strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(title, "\n", ""), "\r", "")), "")
		}
	}

	wRes.ResponseLength = utf8.RuneCountInString(wRes.BodyString)
	return wRes, nil
}

func looksLikeHTML(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<!") || strings.HasPrefix(trimmed, "<html") || strings.HasPrefix(trimmed, "<HTML")
}

func isTitleElement(n *html.Node) bool {
	return n.Type == html.ElementNode && n.Data == "title"
}

func traverse(n *html.Node) (string, bool) {
	if isTitleElement(n) {
		if n.FirstChild != nil {
			return n.FirstChild.Data, true
		}
		return "", true
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result, ok := traverse(c)
		if ok {
			return result, ok
		}
	}

	return "", false
}

func getHTMLTitle(requestBody string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(requestBody))
	if err != nil {
		log.Println("Failed to parse HTML body")
		return "", false
	}

	return traverse(doc)
}
