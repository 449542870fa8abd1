package applenotify

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt"
)

const appleRootCAG3RootPem = `-----BEGIN CERTIFICATE-----
MIICQzCCAcmgAwIBAgIILcX8iNLFS5UwCgYIKoZIzj0EAwMwZzEbMBkGA1UEAwwS
QXBwbGUgUm9vdCBDQSAtIEczMSYwJAYDVQQLDB1BcHBsZSBDZXJ0aWZpY2F0aW9u
IEF1dGhvcml0eTETMBEGA1UECgwKQXBwbGUgSW5jLjELMAkGA1UEBhMCVVMwHhcN
MTQwNDMwMTgxOTA2WhcNMzkwNDMwMTgxOTA2WjBnMRswGQYDVQQDDBJBcHBsZSBS
b290IENBIC0gRzMxJjAkBgNVBAsMHUFwcGxlIENlcnRpZmljYXRpb24gQXV0aG9y
aXR5MRMwEQYDVQQKDApBcHBsZSBJbmMuMQswCQYDVQQGEwJVUzB2MBAGByqGSM49
AgEGBSuBBAAiA2IABJjpLz1AcqTtkyJygRMc3RCV8cWjTnHcFBbZDuWmBSp3ZHtf
TjjTuxxEtX/1H7YyYl3J6YRbTzBPEVoA/VhYDKX1DyxNB0cTddqXl5dvMVztK517
IDvYuVTZXpmkOlEKMaNCMEAwHQYDVR0OBBYEFLuw3qFYM4iapIqZ3r6966/ayySr
MA8GA1UdEwEB/wQFMAMBAf8wDgYDVR0PAQH/BAQDAgEGMAoGCCqGSM49BAMDA2gA
MGUCMQCD6cHEFl4aXTQY2e3v9GwOAEZLuN+yRhHFD/3meoyhpmvOwgPUnPWTxnS4
at+qIxUCMG1mihDK1A3UT82NQz60imOlM27jbdoXt2QfyFMm+YhidDkLF1vLUagM
6BgD56KyKA==
-----END CERTIFICATE-----`

// Notification is a verified, decoded App Store Server Notification V2.
type Notification struct {
	IsValid            bool
	IsTestNotification bool
	IsSandbox          bool

	Payload         *NotificationPayload
	TransactionInfo *TransactionInfo
	RenewalInfo     *RenewalInfo

	appleRootCert string
}

// Parse verifies the signed payload's x5c chain against the Apple Root CA-G3
// certificate and decodes the payload, transaction and renewal claims.
func Parse(signedPayload string) (*Notification, error) {
	n := &Notification{appleRootCert: appleRootCAG3RootPem}
	if err := n.parseJwtSignedPayload(signedPayload); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Notification) extractHeaderByIndex(payload string, index int) ([]byte, error) {
	parts := strings.Split(payload, ".")
	if len(parts) < 2 {
		return nil, errors.New("malformed signed payload")
	}

	headerByte, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}

	var header NotificationHeader
	if err := json.Unmarshal(headerByte, &header); err != nil {
		return nil, err
	}
	if index >= len(header.X5c) {
		return nil, errors.New("x5c chain shorter than expected")
	}

	certByte, err := base64.StdEncoding.DecodeString(header.X5c[index])
	if err != nil {
		return nil, err
	}
	return certByte, nil
}

func (n *Notification) verifyCertificate(certByte []byte, intermediateCert []byte) error {
	roots := x509.NewCertPool()
	if ok := roots.AppendCertsFromPEM([]byte(n.appleRootCert)); !ok {
		return errors.New("root certificate couldn't be parsed")
	}

	interCert, err := x509.ParseCertificate(intermediateCert)
	if err != nil {
		return errors.New("intermediate certificate couldn't be parsed")
	}
	intermediate := x509.NewCertPool()
	intermediate.AddCert(interCert)

	cert, err := x509.ParseCertificate(certByte)
	if err != nil {
		return err
	}

	opts := x509.VerifyOptions{Roots: roots, Intermediates: intermediate}
	if _, err := cert.Verify(opts); err != nil {
		return err
	}
	return nil
}

func (n *Notification) extractPublicKeyFromPayload(payload string) (*ecdsa.PublicKey, error) {
	certStr, err := n.extractHeaderByIndex(payload, 0)
	if err != nil {
		return nil, err
	}

	cert, err := x509.ParseCertificate(certStr)
	if err != nil {
		return nil, err
	}

	switch pk := cert.PublicKey.(type) {
	case *ecdsa.PublicKey:
		return pk, nil
	default:
		return nil, errors.New("appstore public key must be of type ecdsa.PublicKey")
	}
}

func (n *Notification) parseJwtSignedPayload(payload string) error {
	rootCertStr, err := n.extractHeaderByIndex(payload, 2)
	if err != nil {
		return err
	}
	intermediateCertStr, err := n.extractHeaderByIndex(payload, 1)
	if err != nil {
		return err
	}
	if err = n.verifyCertificate(rootCertStr, intermediateCertStr); err != nil {
		return err
	}

	notificationPayload := &NotificationPayload{}
	_, err = jwt.ParseWithClaims(payload, notificationPayload, func(token *jwt.Token) (interface{}, error) {
		return n.extractPublicKeyFromPayload(payload)
	})
	if err != nil {
		return err
	}
	n.Payload = notificationPayload
	n.IsTestNotification = notificationPayload.NotificationType == "TEST"
	n.IsSandbox = notificationPayload.Data.Environment == "Sandbox"

	if n.IsTestNotification {
		n.IsValid = true
		return nil
	}

	transactionInfo := &TransactionInfo{}
	payload = n.Payload.Data.SignedTransactionInfo
	_, err = jwt.ParseWithClaims(payload, transactionInfo, func(token *jwt.Token) (interface{}, error) {
		return n.extractPublicKeyFromPayload(payload)
	})
	if err != nil {
		return err
	}
	n.TransactionInfo = transactionInfo

	if n.Payload.Data.SignedRenewalInfo != "" {
		renewalInfo := &RenewalInfo{}
		payload = n.Payload.Data.SignedRenewalInfo
		_, err = jwt.ParseWithClaims(payload, renewalInfo, func(token *jwt.Token) (interface{}, error) {
			return n.extractPublicKeyFromPayload(payload)
		})
		if err != nil {
			return err
		}
		n.RenewalInfo = renewalInfo
	}

	n.IsValid = true
	return nil
}
