package device

import "time"

// Device is a rentable item listed by its owner.
//
// JSON field names are the public wire format used by clients.
type Device struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Manufacturer    string     `json:"manufacturer"`
	DeviceModel     string     `json:"deviceModel"`
	Condition       string     `json:"condition"`
	BatteryCapacity float64    `json:"batteryCapacity"`
	Weight          float64    `json:"weight"`
	TypeC           int        `json:"typeC"`
	TypeA           int        `json:"typeA"`
	Sockets         int        `json:"sockets"`
	RemoteUse       string     `json:"remoteUse,omitempty"`
	Dimensions      Dimensions `json:"dimensions"`
	BatteryType     string     `json:"batteryType,omitempty"`
	SignalShape     string     `json:"signalShape,omitempty"`
	Additional      string     `json:"additional,omitempty"`
	Images          []Image    `json:"images"`
	Price           float64    `json:"price"`
	MinRentTerm     int        `json:"minRentTerm"`
	MaxRentTerm     int        `json:"maxRentTerm"`
	PolicyAgreement bool       `json:"policyAgreement"`
	IsInRent        bool       `json:"isInRent"`
	OwnerID         string     `json:"ownerId"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Dimensions are free-form physical measurements as entered by the owner.
type Dimensions struct {
	Length string `json:"length"`
	Width  string `json:"width"`
	Height string `json:"height"`
}

// Image is one uploaded picture of a device.
// URL is the locator returned by the object store.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ImageDimensions is the caller-supplied size of one attachment,
// matched to attachments by position.
type ImageDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Owner is the public profile of a device owner.
type Owner struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Surname     string `json:"surname,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Town        string `json:"town,omitempty"`
	Street      string `json:"street,omitempty"`
	Region      string `json:"region,omitempty"`
}

// detailProjection keeps the contact fields shown on a device page.
func detailProjection(o Owner) *Owner {
	return &Owner{
		ID:          o.ID,
		Name:        o.Name,
		Surname:     o.Surname,
		PhoneNumber: o.PhoneNumber,
		Town:        o.Town,
		Street:      o.Street,
		Region:      o.Region,
	}
}

// listingProjection keeps only the town shown in listings.
func listingProjection(o Owner) *Owner {
	return &Owner{ID: o.ID, Town: o.Town}
}

// View is a device with its owner reference expanded.
// Owner is nil when the owner account no longer exists.
type View struct {
	Device
	Owner *Owner `json:"owner,omitempty"`
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Manufacturer  string
	Condition     string
	AvailableOnly bool
	MinPrice      *float64
	MaxPrice      *float64

	// Town matches the owner's town and is applied after owner expansion.
	Town string
}

// DeepCopy creates an independent copy of the device.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d
	if d.Images != nil {
		cpy.Images = make([]Image, len(d.Images))
		copy(cpy.Images, d.Images)
	}
	return &cpy
}
