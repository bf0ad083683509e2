package server

// Config holds every runtime setting this server honors: listen address,
// replication role, and the RDB path INFO/CONFIG GET expose. It implements
// command.ConfigView directly, so the same struct flows from CLI flags
// straight into command Apply.
type Config struct {
	Host       string
	Port       int
	ReplicaOf  string // "host port", empty if this is a primary
	DirPath    string
	DBFile     string
	ReadBufferSize int
}

func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           6379,
		DirPath:        ".",
		DBFile:         "dump.rdb",
		ReadBufferSize: 4096,
	}
}

// Role reports "slave" when ReplicaOf is set, "master" otherwise — the
// same two values Redis itself prints in INFO replication.
func (c *Config) Role() string {
	if c.ReplicaOf != "" {
		return "slave"
	}
	return "master"
}

func (c *Config) Dir() string        { return c.DirPath }
func (c *Config) DBFilename() string { return c.DBFile }
