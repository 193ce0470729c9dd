//go:build !assert

package assert

const Enable = false
