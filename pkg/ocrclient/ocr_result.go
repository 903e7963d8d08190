package ocrclient

type TextBlock struct {
	Text        string      `json:"text"`
	Lines       []Line      `json:"lines"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Lang        string      `json:"lang"`
}

type Line struct {
	Text               string  `json:"text"`
	Angle              float64 `json:"angle"`
	Confidence         float64 `json:"confidence"`
	RecognizedLanguage string  `json:"recognizedLanguage"`
}

type BoundingBox struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

type Barcode struct {
	BoundingBox  BoundingBox `json:"boundingBox"`
	DisplayValue string      `json:"displayValue"`
	RawValue     string      `json:"rawValue"`
}

type OcrResult struct {
	TextBlocks []TextBlock `json:"textBlocks"`
	Barcodes   []Barcode   `json:"barcodes"`
}

// BarcodeValues returns the raw values of the decoded barcodes. Shipping
// labels often only carry the tracking number as a barcode.
func (o *OcrResult) BarcodeValues() []string {
	var values []string
	for _, b := range o.Barcodes {
		v := b.RawValue
		if v == "" {
			v = b.DisplayValue
		}
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
