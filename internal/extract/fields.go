package extract

const (
	// NotDetected marks name/id fields when the document yielded no text.
	NotDetected = "Not Detected"
	// ErrorMarker marks name/id fields when the text reader failed.
	ErrorMarker = "Error"
)

// Fields is what one side of a document yields. Empty strings mean the
// heuristic found nothing; DOB is nil when no birth-date line was seen.
type Fields struct {
	Name       string
	IDNumber   string
	DOB        *string
	Address    string
	RawText    string
	Confidence float64
}

// HasIDNumber reports whether a well-formed identity number was extracted.
func (f Fields) HasIDNumber() bool {
	return IsIDNumber(f.IDNumber)
}

// Document merges the front and optional back of an identity document.
type Document struct {
	Name         string  `json:"name"`
	IDNumber     string  `json:"id_number"`
	DOB          *string `json:"dob"`
	AddressFront string  `json:"address_front"`
	AddressBack  string  `json:"address_back"`
	RawText      string  `json:"-"`
	RawTextBack  string  `json:"raw_text_back"`
	// Confidence is the front-side OCR confidence in [0,1].
	Confidence float64 `json:"-"`
}

func (d Document) HasIDNumber() bool {
	return IsIDNumber(d.IDNumber)
}

// Merge keeps the identity fields of the front side and the address and raw
// text of the back side, where postal details are printed.
func Merge(front Fields, back *Fields) Document {
	d := Document{
		Name:         front.Name,
		IDNumber:     front.IDNumber,
		DOB:          front.DOB,
		AddressFront: front.Address,
		RawText:      front.RawText,
		Confidence:   front.Confidence,
	}
	if back != nil {
		d.AddressBack = back.Address
		d.RawTextBack = back.RawText
	}
	return d
}

// Failed is the result for a side whose text could not be read at all.
func Failed() Fields {
	return Fields{Name: ErrorMarker, IDNumber: ErrorMarker}
}
