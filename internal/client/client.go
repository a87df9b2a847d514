// Package client implements the mrdclient driver: it sends one input
// group's acquisitions or images to an MRD server and writes whatever the
// server streams back into an output dataset group.
package client

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/ismrmrd-go/mrdstream/internal/dataset"
	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/reccodec"
	"github.com/ismrmrd-go/mrdstream/internal/streamconn"
)

// Options configures one client run. Input and Output are the client's
// dataset collaborators: Input supplies the group being sent, Output
// receives whatever images come back.
type Options struct {
	Address string
	Port    int

	Input    dataset.Dataset
	InGroup  string
	Output   dataset.Dataset
	OutGroup string

	ConfigSelector string // remote config file name, used unless ConfigLocal is set
	ConfigLocal    string // path to a local config script; its contents are sent inline when non-empty

	ConnectTimeout time.Duration
}

// Run connects to the server, streams Input's group out, and drains
// whatever the server sends back into Output's group, returning once both
// directions have completed.
func Run(opts Options) error {
	if opts.Input == nil || opts.Output == nil {
		return errors.New("client: Input and Output datasets are required")
	}
	if opts.OutGroup == "" {
		opts.OutGroup = time.Now().UTC().Format("2006-01-02 15:04:05")
	}

	kind, err := opts.Input.Kind(opts.InGroup)
	if err != nil {
		return fmt.Errorf("client: determine kind of group %s: %w", opts.InGroup, err)
	}

	addr := fmt.Sprintf("%s:%d", opts.Address, opts.Port)
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("client: connect to %s: %w", addr, err)
	}
	defer conn.Close()

	codec := reccodec.Reference{}
	outbound := streamconn.NewOutbound(conn, codec)
	inbound := streamconn.NewInbound(conn, codec, streamconn.WithInitialState(streamconn.StateStreaming))

	var wg sync.WaitGroup
	inboundErrCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		inboundErrCh <- receiveLoop(inbound, opts.Output, opts.OutGroup)
	}()

	sendErr := sendSession(outbound, opts, kind)

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.CloseWrite(); err != nil {
			logger.Debug("client: close write half failed", logger.Err(err))
		}
	}

	wg.Wait()
	recvErr := <-inboundErrCh

	if sendErr != nil {
		return fmt.Errorf("client: send session: %w", sendErr)
	}
	if recvErr != nil {
		return fmt.Errorf("client: receive session: %w", recvErr)
	}
	logger.Info("client: session complete", logger.GroupName(opts.OutGroup))
	return nil
}

func sendSession(out *streamconn.Connection, opts Options, kind dataset.Kind) error {
	if opts.ConfigLocal != "" {
		data, err := os.ReadFile(opts.ConfigLocal)
		if err != nil {
			return fmt.Errorf("read local config %s: %w", opts.ConfigLocal, err)
		}
		logger.Info("client: sending local config script", logger.DatasetPath(opts.ConfigLocal))
		if err := out.SendConfigScript(string(data)); err != nil {
			return fmt.Errorf("send config script: %w", err)
		}
	} else {
		logger.Info("client: sending remote config file name", logger.Pipeline(opts.ConfigSelector))
		if err := out.SendConfigFile(opts.ConfigSelector); err != nil {
			return fmt.Errorf("send config file: %w", err)
		}
	}

	header, err := opts.Input.Header(opts.InGroup)
	if err != nil {
		return fmt.Errorf("read header for group %s: %w", opts.InGroup, err)
	}
	if err := out.SendMetadata(header); err != nil {
		return fmt.Errorf("send metadata: %w", err)
	}
	if writer, ok := opts.Output.(headerWriter); ok {
		if err := writer.WriteHeader(opts.OutGroup, header); err != nil {
			return fmt.Errorf("write output header for group %s: %w", opts.OutGroup, err)
		}
	}

	switch kind {
	case dataset.KindRaw:
		if err := sendAcquisitions(out, opts); err != nil {
			return err
		}
	case dataset.KindImage:
		if err := sendImages(out, opts); err != nil {
			return err
		}
	default:
		return fmt.Errorf("group %s has unrecognized kind", opts.InGroup)
	}

	return out.SendClose()
}

// sendAcquisitions streams every acquisition in the input group. A
// per-acquisition send failure is logged and the loop continues, mirroring
// the reference client's best-effort send loop; only SendClose (issued by
// the caller once this returns) can terminate the session cleanly.
func sendAcquisitions(out *streamconn.Connection, opts Options) error {
	acqs, err := opts.Input.Acquisitions(opts.InGroup)
	if err != nil {
		return fmt.Errorf("read acquisitions from group %s: %w", opts.InGroup, err)
	}
	logger.Info("client: streaming raw data session", logger.GroupSize(len(acqs)))
	for _, acq := range acqs {
		if err := out.SendAcquisition(acq); err != nil {
			logger.Error("client: failed to send acquisition, continuing", logger.Err(err))
			continue
		}
	}
	return nil
}

// sendImages streams every image in the input group, logging and
// continuing past a per-image send failure just as sendAcquisitions does.
func sendImages(out *streamconn.Connection, opts Options) error {
	images, err := opts.Input.Images(opts.InGroup)
	if err != nil {
		return fmt.Errorf("read images from group %s: %w", opts.InGroup, err)
	}
	logger.Info("client: streaming image data session", logger.GroupSize(len(images)))
	for _, img := range images {
		if err := out.SendImage(img); err != nil {
			logger.Error("client: failed to send image, continuing", logger.Err(err))
			continue
		}
	}
	return nil
}

// receiveLoop drains the server's replies into output's group until the
// server closes the session or the connection drops, mirroring the
// original client's dedicated receive process isolated from the send side.
// The server's outbound traffic carries body records and Close only; it
// never resends a metadata header, so the output group's header is written
// by sendSession once it has read it from the input group.
func receiveLoop(in *streamconn.Connection, output dataset.Dataset, group string) error {
	for {
		env, err := in.Next()
		if errors.Is(err, streamconn.ErrExhausted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read server response: %w", err)
		}

		switch {
		case env.Image != nil:
			if err := output.WriteImage(group, env.Image); err != nil {
				return fmt.Errorf("write received image: %w", err)
			}
		default:
			logger.Debug("client: ignoring unsupported response envelope", logger.Kind(env.Kind.String()))
		}
	}
}

// headerWriter is implemented by dataset backends (localstore, s3store)
// that support writing a group's XML header, beyond the core Dataset
// interface.
type headerWriter interface {
	WriteHeader(group, xml string) error
}
