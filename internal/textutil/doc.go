// Package textutil provides text processing utilities for filename
// sanitization and deriving display titles from uploaded file names.
package textutil
