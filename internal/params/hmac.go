package params

import (
	"net/http"
	"net/url"

	"github.com/DMarby/blobcrop/internal/hmac"
)

const hmacParam = "hmac"

// HMAC signs a URL path + query params, returning the path with the canonical query and the signature appended
func HMAC(h *hmac.HMAC, path string, query url.Values) (string, error) {
	signed := url.Values{}
	for k, v := range query {
		if k != hmacParam {
			signed[k] = v
		}
	}

	mac, err := h.Create(path + BuildQuery(signed))
	if err != nil {
		return "", err
	}

	signed.Set(hmacParam, mac)
	return path + BuildQuery(signed), nil
}

// ValidateHMAC validates the URL path/query params, given an hmac in a query parameter named hmac
func ValidateHMAC(h *hmac.HMAC, r *http.Request) (bool, error) {
	query := r.URL.Query()

	mac := query.Get(hmacParam)
	if mac == "" {
		return false, nil
	}
	query.Del(hmacParam)

	return h.Validate(r.URL.Path+BuildQuery(query), mac)
}
