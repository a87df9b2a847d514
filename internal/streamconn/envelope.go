package streamconn

import (
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/wire"
)

// Envelope is one fully-decoded message handed to a Connection's caller.
// Exactly the fields relevant to Kind are populated.
type Envelope struct {
	Kind wire.Kind

	ConfigToken string // ConfigFile, ConfigScript
	Metadata    string // ParameterScript

	Acquisition *reccodec.Acquisition
	Waveform    *reccodec.Waveform
	Image       *reccodec.Image
}
