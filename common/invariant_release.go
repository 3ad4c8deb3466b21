//go:build !oxydebug

package common

const failFast = false
