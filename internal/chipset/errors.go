package chipset

import (
	"fmt"

	"github.com/platprobe/platprobe/internal/config"
)

// UnknownPlatformError reports that platform identification failed. It is
// fatal to session init when a hardware transport was demanded; otherwise
// the caller may log it and keep the degraded session.
type UnknownPlatformError struct {
	VID uint16
	DID uint16
	RID uint8
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: VID = 0x%04X, DID = 0x%04X, RID = 0x%02X", e.VID, e.DID, e.RID)
}

// DeviceNotFoundError reports a device name absent from the configuration.
type DeviceNotFoundError struct {
	Name string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("device not found: %s", e.Name)
}

// RegisterNotFoundError reports a register name absent from the
// configuration. IsRegisterDefined is the soft query form.
type RegisterNotFoundError struct {
	Name string
}

func (e *RegisterNotFoundError) Error() string {
	return fmt.Sprintf("register not found: %s", e.Name)
}

// BARNotFoundError reports a BAR name absent from the configuration.
type BARNotFoundError struct {
	Name string
}

func (e *BARNotFoundError) Error() string {
	return fmt.Sprintf("bar not found: %s", e.Name)
}

// RegisterTypeError reports a register whose declared address-space kind is
// not one of the supported kinds. Always fatal: it indicates a corrupt or
// unsupported definition, never a value to default.
type RegisterTypeError struct {
	Register string
	Kind     config.RegisterKind
}

func (e *RegisterTypeError) Error() string {
	return fmt.Sprintf("register %s: unknown register type %q", e.Register, e.Kind)
}

// FieldNotFoundError reports a field name absent from an otherwise valid
// register.
type FieldNotFoundError struct {
	Register string
	Field    string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("register %s has no field %s", e.Register, e.Field)
}

// ControlNotFoundError reports a control name absent from the
// configuration. IsControlDefined is the soft query form.
type ControlNotFoundError struct {
	Name string
}

func (e *ControlNotFoundError) Error() string {
	return fmt.Sprintf("control not found: %s", e.Name)
}

// SessionStateError reports an operation attempted in the wrong session
// state, such as register access before Ready or a second Init.
type SessionStateError struct {
	Op    string
	State State
}

func (e *SessionStateError) Error() string {
	return fmt.Sprintf("%s: invalid in session state %s", e.Op, e.State)
}

// TransportError wraps a failure of the platform access layer. Always
// propagated; a failed read is never silently defaulted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
