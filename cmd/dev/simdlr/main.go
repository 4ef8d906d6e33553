// simdlr posts a fake provider delivery report at the local server, signed
// the way the real provider would sign it.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	var (
		url       = flag.String("url", "", "webhook endpoint url (defaults to http://localhost<HTTP_ADDR>/v1/webhooks/delivery/sms)")
		secret    = flag.String("secret", "", "DELIVERY_WEBHOOK_SECRET")
		messageID = flag.String("message-id", "", "provider message id to report on")
		status    = flag.String("status", "delivered", "delivered | failed")
	)
	flag.Parse()

	if *url == "" {
		httpAddr := os.Getenv("HTTP_ADDR")
		if httpAddr == "" {
			httpAddr = ":8081"
		}
		if len(httpAddr) > 0 && httpAddr[0] == ':' {
			*url = "http://localhost" + httpAddr + "/v1/webhooks/delivery/sms"
		} else {
			*url = "http://localhost:8081/v1/webhooks/delivery/sms"
		}
	}

	if *secret == "" {
		*secret = os.Getenv("DELIVERY_WEBHOOK_SECRET")
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "missing -secret (or DELIVERY_WEBHOOK_SECRET in env)")
		os.Exit(2)
	}
	if *messageID == "" {
		fmt.Fprintln(os.Stderr, "missing -message-id")
		os.Exit(2)
	}

	b, _ := json.Marshal(map[string]string{
		"messageId": *messageID,
		"status":    *status,
	})

	sig := sign(b, *secret)

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(b))
	if err != nil {
		fmt.Fprintf(os.Stderr, "new request: %v\n", err)
		os.Exit(2)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", sig)

	c := &http.Client{Timeout: 10 * time.Second}
	resp, err := c.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status=%d\n%s\n", resp.StatusCode, string(body))
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
