package pipeline

// Null drains the inbound stream and sends Close without producing any
// output: the "do nothing" pipeline used to validate the wire protocol
// without exercising a reconstruction kernel.
func Null(ctx *Context) error {
	return drain(ctx)
}
