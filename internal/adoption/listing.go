// Package adoption serves the adoptable-pet catalogue and forwards adoption
// applications to the listing collaborator.
package adoption

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const placeholderImage = "https://placehold.co/300x300/9ca3af/ffffff?text=Pet"

// Listing is the one display schema every pet source is normalized into.
type Listing struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Breed       string `json:"breed" yaml:"breed"`
	Age         string `json:"age" yaml:"age"`
	Gender      string `json:"gender" yaml:"gender"`
	Size        string `json:"size" yaml:"size"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"image"`
	Status      string `json:"status" yaml:"status"`
	Shelter     string `json:"shelter" yaml:"shelter"`
}

// text decodes a JSON string, number or null into a string.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*t = text(n.String())
	}
	return nil
}

// ShelterRef is the "shelter" field, which vendors send either as a plain
// name or as an object describing the shelter.
type ShelterRef struct {
	Label      string `json:"-"`
	IsObject   bool   `json:"-"`
	Name       string `json:"name"`
	Location   string `json:"location"`
	Address    string `json:"address"`
	VendorName string `json:"vendorName"`
}

func (s *ShelterRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain ShelterRef
		var obj plain
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*s = ShelterRef(obj)
		s.IsObject = true
		return nil
	}
	var t text
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	*s = ShelterRef{Label: string(t)}
	return nil
}

// VendorRef is the embedded vendor object some posts carry.
type VendorRef struct {
	Name       string `json:"name"`
	VendorName string `json:"vendorName"`
}

// VendorPost is the union of every known vendor wire schema. Each canonical
// field may arrive under more than one name.
type VendorPost struct {
	ObjectID    text        `json:"_id"`
	ID          text        `json:"id"`
	Name        string      `json:"name"`
	Title       string      `json:"title"`
	Type        string      `json:"type"`
	AnimalType  string      `json:"animalType"`
	Breed       string      `json:"breed"`
	BreedName   string      `json:"breedName"`
	Age         text        `json:"age"`
	AgeInfo     text        `json:"ageInfo"`
	Gender      string      `json:"gender"`
	Size        string      `json:"size"`
	Description string      `json:"description"`
	Details     string      `json:"details"`
	Images      []string    `json:"images"`
	Image       string      `json:"image"`
	Status      string      `json:"status"`
	Shelter     *ShelterRef `json:"shelter"`
	VendorName  string      `json:"vendorName"`
	Vendor      *VendorRef  `json:"vendor"`
}

// Normalize maps a vendor post onto the display schema.
func Normalize(p VendorPost) Listing {
	image := p.Image
	if len(p.Images) > 0 && p.Images[0] != "" {
		image = p.Images[0]
	}
	id := first(string(p.ObjectID), string(p.ID))
	if id == "" {
		id = uuid.NewString()
	}
	return Listing{
		ID:          id,
		Name:        first(p.Name, p.Title, "Unnamed Pet"),
		Type:        first(p.Type, p.AnimalType, "Pet"),
		Breed:       first(p.Breed, p.BreedName),
		Age:         first(string(p.Age), string(p.AgeInfo)),
		Gender:      p.Gender,
		Size:        p.Size,
		Description: first(p.Description, p.Details),
		Image:       first(image, placeholderImage),
		Status:      first(p.Status, "Available"),
		Shelter:     shelterName(p),
	}
}

func shelterName(p VendorPost) string {
	if s := p.Shelter; s != nil {
		if s.IsObject {
			return first(s.Name, s.Location, s.Address, s.VendorName, "Vendor")
		}
		if s.Label != "" {
			return s.Label
		}
	}
	if p.VendorName != "" {
		return p.VendorName
	}
	if p.Vendor != nil {
		return first(p.Vendor.Name, p.Vendor.VendorName, "Vendor")
	}
	return "Vendor"
}

func first(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
