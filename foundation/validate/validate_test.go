package validate_test

import (
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type entry struct {
	Name string `json:"name" validate:"required"`
	Port int    `json:"port" validate:"min=1,max=65535"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate models.")
	{
		if err := validate.Check(entry{Name: "miner1", Port: 9001}); err != nil {
			t.Fatalf("\t%s\tShould accept a valid model: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid model.", success)

		err := validate.Check(entry{Port: 0})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould reject an invalid model: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an invalid model.", success)

		fields := validate.GetFieldErrors(err).Fields()
		if _, exists := fields["name"]; !exists {
			t.Fatalf("\t%s\tShould report the name field by its json name: %v", failed, fields)
		}
		if _, exists := fields["port"]; !exists {
			t.Fatalf("\t%s\tShould report the port field by its json name: %v", failed, fields)
		}
		t.Logf("\t%s\tShould report fields by their json names.", success)
	}
}
