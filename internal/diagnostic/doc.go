// Package diagnostic collects structured errors and warnings produced while
// the inspector analyses many types at once.
package diagnostic
