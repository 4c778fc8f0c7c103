package models

// CatalogSet is a kit as listed by the parts/sets catalog.
type CatalogSet struct {
	SetNum    string `json:"set_num"`
	Name      string `json:"name"`
	Year      int    `json:"year"`
	ThemeID   int    `json:"theme_id"`
	NumParts  int    `json:"num_parts"`
	SetImgURL string `json:"set_img_url"`
	SetURL    string `json:"set_url"`
}

// SetContainingPart is a kit that uses a given (part, color) pair.
type SetContainingPart struct {
	CatalogSet
	QuantityInSet int `json:"quantity_in_set"`
}

// PartColor is one color a part is produced in, with its popularity.
type PartColor struct {
	ColorID     int    `json:"color_id"`
	ColorName   string `json:"color_name"`
	NumSets     int    `json:"num_sets"`
	NumSetParts int    `json:"num_set_parts"`
	PartImgURL  string `json:"part_img_url"`
}

// PartColorDetails describes one (part, color) combination.
type PartColorDetails struct {
	PartImgURL  string `json:"part_img_url"`
	YearFrom    int    `json:"year_from"`
	YearTo      int    `json:"year_to"`
	NumSets     int    `json:"num_sets"`
	NumSetParts int    `json:"num_set_parts"`
}

// SetSearchResult is a catalog set search hit, shaped for display.
type SetSearchResult struct {
	SetID      string `json:"set_id"`
	Name       string `json:"name"`
	SetImgURL  string `json:"set_img_url"`
	PartsCount int    `json:"parts_count"`
	Year       int    `json:"year"`
}
