package crann

// Lifetime represents the scope strategy of a built component.
type Lifetime string

const (
	// LifetimeSingleton realizes the component once during Build.
	// Every retrieval returns the same instance. This is the default.
	LifetimeSingleton Lifetime = "singleton"

	// LifetimeTransient realizes the component again on every retrieval.
	// Module loading and target lookup still happen once, during Build.
	LifetimeTransient Lifetime = "transient"
)

// String returns the string representation of the lifetime.
func (l Lifetime) String() string {
	return string(l)
}

// Producer creates a fresh instance of a transient component.
// It receives the container so the instance can resolve other components.
//
// Example:
//
//	producer := func(c *crann.Container) (any, error) {
//	    dsn, err := c.Get("db.dsn")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewConnection(dsn.(string)), nil
//	}
//	container.RegisterTransient("db.connection", producer)
type Producer func(*Container) (any, error)
