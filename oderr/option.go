package oderr

// Option is an Error option function
type Option func(*Error)

func WithMessage(msg string) Option { return func(e *Error) { e.Message = msg } }
func WithElement(name, namespace string) Option {
	return func(e *Error) { e.info().Element, e.info().Namespace = name, namespace }
}
func WithAttribute(name string) Option { return func(e *Error) { e.info().Attribute = name } }
func WithProperty(name string) Option  { return func(e *Error) { e.info().Property = name } }
func WithTypeName(name string) Option  { return func(e *Error) { e.info().TypeName = name } }
