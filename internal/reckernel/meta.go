package reckernel

import "encoding/xml"

// MetaAttributes is the small meta-data document attached to every emitted
// Image. Field order and tag names follow the ISMRMRD meta-attribute
// convention; ImageProcessingHistory records the stages that produced the
// image.
type MetaAttributes struct {
	XMLName                xml.Name `xml:"ismrmrdMeta"`
	DataRole                string  `xml:"dataRole"`
	ImageProcessingHistory  []string `xml:"imageProcessingHistory"`
	WindowCenter            string  `xml:"windowCenter"`
	WindowWidth             string  `xml:"windowWidth"`
}

// DefaultMeta builds the meta-attribute document emitted by the
// reconstruction kernels: a fixed window center/width pair centered on the
// int16 dynamic range, tagged with the processing stages that ran.
func DefaultMeta(history ...string) MetaAttributes {
	return MetaAttributes{
		DataRole:               "Image",
		ImageProcessingHistory: history,
		WindowCenter:           "16384",
		WindowWidth:            "32768",
	}
}

// Serialize renders m as the UTF-8 XML attribute string a reccodec.Image
// carries.
func (m MetaAttributes) Serialize() (string, error) {
	b, err := xml.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
