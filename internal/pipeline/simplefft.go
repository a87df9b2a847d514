package pipeline

import (
	"fmt"

	"github.com/ismrmrd-go/mrdstream/internal/group"
	"github.com/ismrmrd-go/mrdstream/internal/logger"
	"github.com/ismrmrd-go/mrdstream/internal/reckernel"
)

// SimpleFFT groups acquisitions by slice, reconstructs each group with the
// k-space inverse FFT kernel, and streams the resulting images back. Images
// received directly (already reconstructed upstream) pass through
// unmodified.
func SimpleFFT(ctx *Context) error {
	return reconstruct(ctx, false)
}

// InvertContrast behaves like SimpleFFT but inverts the reconstructed
// image's contrast, and additionally applies the invert-image kernel to any
// Image records received directly rather than passing them through.
func InvertContrast(ctx *Context) error {
	return reconstruct(ctx, true)
}

func reconstruct(ctx *Context, invertContrast bool) error {
	yield := func(g group.Group) error {
		ctx.Metrics.GroupProcessed(ctx.ConfigSelector)

		if g.Image != nil {
			img := g.Image
			if invertContrast {
				ctx.Metrics.KernelInvoked(reckernel.InvertImageName)
				inverted, err := reckernel.InvertImage(img)
				if err != nil {
					return fmt.Errorf("pipeline: invert received image: %w", err)
				}
				img = inverted
			}
			return ctx.Conn.SendImage(img)
		}

		ctx.Metrics.KernelInvoked(reckernel.KFFTName)
		img, err := reckernel.KFFT(g.Acquisitions, invertContrast)
		if err != nil {
			return fmt.Errorf("pipeline: reconstruct group: %w", err)
		}
		if img == nil {
			logger.Debug("pipeline: group produced no image", logger.SessionID(ctx.SessionID), logger.GroupSize(len(g.Acquisitions)))
			return nil
		}
		return ctx.Conn.SendImage(img)
	}

	return group.Run(ctx.Conn, ctx.Conn, group.Default(), yield)
}
