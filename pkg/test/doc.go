/*
Package test provides shared testing utilities for this module.

This package includes:
  - Suite: Base test suite with context and testify integration

Usage:

	import "github.com/chris-alexander-pop/commander-core/pkg/test"

	type MyTestSuite struct {
		*test.Suite
	}

	func (s *MyTestSuite) TestSomething() {
		s.NoError(doSomething(s.Ctx))
	}

	func TestMySuite(t *testing.T) {
		test.Run(t, &MyTestSuite{Suite: test.NewSuite()})
	}
*/
package test
