//go:build !unix

package repository

import "os"

func lockShared(*os.File) error { return nil }

func lockExclusive(*os.File) error { return nil }
