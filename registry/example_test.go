package registry_test

import (
	"fmt"

	"github.com/katalvlaran/paramspace/registry"
)

// ExampleRegistry_Coerce shows built-in coercion and its error message.
func ExampleRegistry_Coerce() {
	reg := registry.Default()

	v, err := reg.Coerce(registry.TypeInt, "2019")
	fmt.Println(v, err)

	_, err = reg.Coerce(registry.TypeFloat, "twelve")
	fmt.Println(err)
	// Output:
	// 2019 <nil>
	// Not a valid number: twelve.
}
