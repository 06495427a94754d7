package autofill

import "fmt"

type UnknownProviderError struct {
	Name string
}

func (error UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", error.Name)
}

// ScriptError is an exception thrown by page script run on behalf of the automation.
type ScriptError struct {
	Op      string
	Message string
}

func (error ScriptError) Error() string {
	return fmt.Sprintf("%v: page script failed: %v", error.Op, error.Message)
}

// StaleElementError means the node behind an Element left the document.
type StaleElementError struct {
	ID string
}

func (error StaleElementError) Error() string {
	return fmt.Sprintf("element %v is no longer attached to the document", error.ID)
}

type OriginMismatchError struct {
	Provider Provider
	URL      string
}

func (error OriginMismatchError) Error() string {
	return fmt.Sprintf("%v automation does not run on %v", error.Provider, error.URL)
}

type StoreClosedError struct{}

func (error StoreClosedError) Error() string {
	return "store is closed"
}
