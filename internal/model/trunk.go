package model

import "time"

// Transport is the SIP transport for a trunk.
type Transport string

const (
	TransportUDP Transport = "udp"
	TransportTCP Transport = "tcp"
	TransportTLS Transport = "tls"
)

// IsValid checks whether the transport is a known value. Empty is allowed
// (engine default).
func (t Transport) IsValid() bool {
	switch t {
	case "", TransportUDP, TransportTCP, TransportTLS:
		return true
	}
	return false
}

// SrtpMode controls media encryption on a trunk.
type SrtpMode string

const (
	SrtpOptional SrtpMode = "optional"
	SrtpRequired SrtpMode = "required"
	SrtpOff      SrtpMode = "off"
)

// IsValid checks whether the SRTP mode is a known value. Empty is allowed.
func (m SrtpMode) IsValid() bool {
	switch m {
	case "", SrtpOptional, SrtpRequired, SrtpOff:
		return true
	}
	return false
}

// DtmfMode is the DTMF signalling mode for a trunk.
type DtmfMode string

const (
	DtmfRFC2833 DtmfMode = "rfc2833"
	DtmfInband  DtmfMode = "inband"
	DtmfInfo    DtmfMode = "info"
)

// IsValid checks whether the DTMF mode is a known value. Empty is allowed.
func (m DtmfMode) IsValid() bool {
	switch m {
	case "", DtmfRFC2833, DtmfInband, DtmfInfo:
		return true
	}
	return false
}

// Trunk is a SIP gateway configuration toward a carrier. It is rendered to a
// FreeSWITCH gateway XML profile on upsert.
type Trunk struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Host           string    `json:"host"`
	Enabled        bool      `json:"enabled"`
	Username       string    `json:"username,omitempty"`
	Secret         string    `json:"secret,omitempty"`
	Transport      Transport `json:"transport,omitempty"`
	Srtp           SrtpMode  `json:"srtp,omitempty"`
	Proxy          string    `json:"proxy,omitempty"`
	Registrar      string    `json:"registrar,omitempty"`
	Expires        int       `json:"expires,omitempty"` // default 300
	Codecs         []string  `json:"codecs,omitempty"`  // default PCMU,PCMA
	DtmfMode       DtmfMode  `json:"dtmfMode,omitempty"`

	// Gateway registration behavior.
	Register       bool   `json:"register"`
	Realm          string `json:"realm,omitempty"`
	FromUser       string `json:"fromUser,omitempty"`
	FromDomain     string `json:"fromDomain,omitempty"`
	Extension      string `json:"extension,omitempty"`
	RegisterProxy  string `json:"registerProxy,omitempty"`
	RetrySeconds   int    `json:"retrySeconds,omitempty"`
	CallerIDInFrom bool   `json:"callerIdInFrom,omitempty"`
	Ping           int    `json:"ping,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultCodecs is the codec list used when a trunk declares none.
var DefaultCodecs = []string{"PCMU", "PCMA"}
