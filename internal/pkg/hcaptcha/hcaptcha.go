package hcaptcha

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/didierkasongo/ndaku/internal/pkg/env"
)

const verifyURL = "https://hcaptcha.com/siteverify"

var httpClient = &http.Client{Timeout: 10 * time.Second}

type verifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// SiteKey returns the public site key embedded in the registration form.
func SiteKey() string {
	return env.GetEnv("HCAPTCHA_SITEKEY", "")
}

// Verify checks a captcha token against the hCaptcha API. Registration is the
// only caller; a misconfigured secret fails closed.
func Verify(token string) (bool, error) {
	if token == "" {
		return false, fmt.Errorf("captcha token is empty")
	}

	secret := env.GetEnv("HCAPTCHA_SECRET", "")
	if secret == "" {
		return false, fmt.Errorf("HCAPTCHA_SECRET is not set")
	}

	resp, err := httpClient.PostForm(verifyURL, url.Values{
		"secret":   {secret},
		"response": {token},
	})
	if err != nil {
		return false, fmt.Errorf("captcha verification request failed: %v", err)
	}
	defer resp.Body.Close()

	var result verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode captcha response: %v", err)
	}

	if !result.Success {
		msg := "captcha validation failed"
		if len(result.ErrorCodes) > 0 {
			msg = msg + ": " + strings.Join(result.ErrorCodes, ", ")
		}
		return false, fmt.Errorf(msg)
	}
	return true, nil
}
