// Package access gates downloads behind an optional secret.
package access
