package credential

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/safedrive-io/safedrive/internal/companion/model"
)

// payloadVersion identifies the provisioning payload layout. Vehicle
// units reject versions they do not understand.
const payloadVersion = 1

// ProvisionPayload is the document rendered into a pairing QR code.
type ProvisionPayload struct {
	Version  int       `json:"version"`
	IssuedAt time.Time `json:"issuedAt"`
	Nonce    string    `json:"nonce"`

	Owner struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	} `json:"owner"`

	Vehicle struct {
		Name        string `json:"name"`
		PlateNumber string `json:"plateNumber"`
		VehicleID   string `json:"vehicleId"`
	} `json:"vehicle"`

	DeviceKey string `json:"deviceKey"`
}

// NewProvisionPayload builds a pairing payload. Every call draws a fresh
// nonce so no two rendered codes are identical even for the same vehicle.
func NewProvisionPayload(owner model.OwnerInfo, vehicle model.VehicleDevice, deviceKey string, issuedAt time.Time) (*ProvisionPayload, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate provisioning nonce: %w", err)
	}

	p := &ProvisionPayload{
		Version:   payloadVersion,
		IssuedAt:  issuedAt,
		Nonce:     nonce,
		DeviceKey: deviceKey,
	}
	p.Owner.Name = owner.Name
	p.Owner.Phone = owner.Phone
	p.Vehicle.Name = vehicle.Name
	p.Vehicle.PlateNumber = vehicle.PlateNumber
	p.Vehicle.VehicleID = vehicle.VehicleID

	return p, nil
}

func newNonce() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
