package commands

// RemoteIdentifier exports remoteIdentifier for testing.
var RemoteIdentifier = remoteIdentifier //nolint:gochecknoglobals // test export

// CheckBranches exports checkBranches for testing.
var CheckBranches = checkBranches //nolint:gochecknoglobals // test export
