package auth

import (
	"encoding/base64"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

// TOTPProvisioningQR renders the otpauth provisioning URL for the admin
// TOTP secret as a PNG data URL, for one-time authenticator enrollment
// through a protected endpoint.
func TOTPProvisioningQR(secret, issuer, account string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("totp secret not configured")
	}

	provisioningURL := fmt.Sprintf(
		"otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(issuer), url.PathEscape(account),
		url.QueryEscape(secret), url.QueryEscape(issuer),
	)

	qr, err := qrcode.New(provisioningURL, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate qr code: %w", err)
	}

	png, err := qr.PNG(256)
	if err != nil {
		return "", fmt.Errorf("failed to encode qr code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
