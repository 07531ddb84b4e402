package component

// Registerable lets a component describe its own registry entry instead of
// passing a RegistrationConfig at call sites.
type Registerable interface {
	Registration() Registration
}
