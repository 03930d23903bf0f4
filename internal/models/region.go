package models

import "time"

// District is the top level of the administrative hierarchy
type District struct {
	ID         string    `json:"id"`
	DistrictID int       `json:"district_id"`
	Name       string    `json:"name"`
	KName      string    `json:"k_name"`
	IsActive   bool      `json:"is_active"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewDistrict returns a district with default flags, ready to be decoded into
func NewDistrict() *District {
	return &District{IsActive: true}
}

func (d *District) GetID() string   { return d.ID }
func (d *District) SetID(id string) { d.ID = id }

func (d *District) Touch(now time.Time, created bool) {
	if created {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
}

func (d *District) Validate() []string {
	var errs []string
	if blank(d.Name) {
		errs = append(errs, "District name is required")
	}
	if d.DistrictID < 0 {
		errs = append(errs, "District ID must be a non-negative number")
	}
	return errs
}

// Taluk belongs to a district
type Taluk struct {
	ID         string    `json:"id"`
	TalukID    int       `json:"taluk_id"`
	Name       string    `json:"name"`
	KName      string    `json:"k_name"`
	District   string    `json:"district"`
	IsActive   bool      `json:"is_active"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewTaluk() *Taluk {
	return &Taluk{IsActive: true}
}

func (t *Taluk) GetID() string   { return t.ID }
func (t *Taluk) SetID(id string) { t.ID = id }

func (t *Taluk) Touch(now time.Time, created bool) {
	if created {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

func (t *Taluk) Validate() []string {
	var errs []string
	if blank(t.Name) {
		errs = append(errs, "Taluk name is required")
	}
	if blank(t.District) {
		errs = append(errs, "District reference is required")
	}
	if t.TalukID < 0 {
		errs = append(errs, "Taluk ID must be a non-negative number")
	}
	return errs
}

// TalukExpanded is a taluk with its district resolved
type TalukExpanded struct {
	Taluk
	District Ref[District] `json:"district"`
}

// Hobli belongs to a taluk and, through it, a district
type Hobli struct {
	ID         string    `json:"id"`
	HobliID    int       `json:"hobli_id"`
	Name       string    `json:"name"`
	KName      string    `json:"k_name"`
	District   string    `json:"district"`
	Taluk      string    `json:"taluk"`
	IsActive   bool      `json:"is_active"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func NewHobli() *Hobli {
	return &Hobli{IsActive: true}
}

func (h *Hobli) GetID() string   { return h.ID }
func (h *Hobli) SetID(id string) { h.ID = id }

func (h *Hobli) Touch(now time.Time, created bool) {
	if created {
		h.CreatedAt = now
	}
	h.UpdatedAt = now
}

func (h *Hobli) Validate() []string {
	var errs []string
	if blank(h.Name) {
		errs = append(errs, "Hobli name is required")
	}
	if blank(h.District) {
		errs = append(errs, "District reference is required")
	}
	if blank(h.Taluk) {
		errs = append(errs, "Taluk reference is required")
	}
	if h.HobliID < 0 {
		errs = append(errs, "Hobli ID must be a non-negative number")
	}
	return errs
}

// HobliExpanded is a hobli with district and taluk resolved
type HobliExpanded struct {
	Hobli
	District Ref[District] `json:"district"`
	Taluk    Ref[Taluk]    `json:"taluk"`
}

// Village is the leaf of the hierarchy
type Village struct {
	ID          string    `json:"id"`
	VillageID   int       `json:"village_id"`
	VillageCode string    `json:"village_code"`
	Name        string    `json:"name"`
	KName       string    `json:"k_name"`
	District    string    `json:"district"`
	Taluk       string    `json:"taluk"`
	Hobli       string    `json:"hobli"`
	IsActive    bool      `json:"is_active"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewVillage() *Village {
	return &Village{IsActive: true, VillageCode: "0"}
}

func (v *Village) GetID() string   { return v.ID }
func (v *Village) SetID(id string) { v.ID = id }

func (v *Village) Touch(now time.Time, created bool) {
	if created {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
}

// Normalize treats an empty village code as the legacy placeholder "0"
func (v *Village) Normalize() {
	if v.VillageCode == "" {
		v.VillageCode = "0"
	}
}

func (v *Village) Validate() []string {
	var errs []string
	if blank(v.Name) {
		errs = append(errs, "Village name is required")
	}
	if blank(v.VillageCode) {
		errs = append(errs, "Village code is required")
	}
	if blank(v.District) {
		errs = append(errs, "District reference is required")
	}
	if blank(v.Taluk) {
		errs = append(errs, "Taluk reference is required")
	}
	if blank(v.Hobli) {
		errs = append(errs, "Hobli reference is required")
	}
	if v.VillageID < 0 {
		errs = append(errs, "Village ID must be a non-negative number")
	}
	return errs
}

// VillageExpanded is a village with every parent resolved
type VillageExpanded struct {
	Village
	District Ref[District] `json:"district"`
	Taluk    Ref[Taluk]    `json:"taluk"`
	Hobli    Ref[Hobli]    `json:"hobli"`
}
