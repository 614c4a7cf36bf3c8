package traffic

import "testing"

func TestParseEntity(t *testing.T) {
	for _, s := range []string{"counters", "datastreams", "counts"} {
		e, err := ParseEntity(s)
		if err != nil {
			t.Fatalf("ParseEntity(%q) error = %v", s, err)
		}
		if string(e) != s {
			t.Fatalf("ParseEntity(%q) = %q", s, e)
		}
	}

	if _, err := ParseEntity("segments"); err == nil {
		t.Fatal("ParseEntity(segments) expected error")
	}
}

func TestSchemaRequiredFields(t *testing.T) {
	tests := []struct {
		entity   Entity
		fields   int
		required []string
	}{
		{EntityCounters, 8, []string{"counter_id", "counter_code", "counter_name", "vendor", "vendor_site_id", "latitude", "longitude"}},
		{EntityDatastreams, 6, []string{"datastream_id", "counter_id", "datastream_type", "datastream_name", "datastream_direction"}},
		{EntityCounts, 10, []string{"count_id", "datastream_id", "date_time"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			schema := tt.entity.Schema()
			if len(schema) != tt.fields {
				t.Fatalf("Schema() len = %d, want %d", len(schema), tt.fields)
			}

			required := map[string]bool{}
			for _, spec := range schema {
				if spec.Required {
					required[spec.Name] = true
				}
			}
			if len(required) != len(tt.required) {
				t.Fatalf("required fields = %v, want %v", required, tt.required)
			}
			for _, name := range tt.required {
				if !required[name] {
					t.Fatalf("field %q should be required", name)
				}
			}
		})
	}
}

func TestSchemaUnknownEntity(t *testing.T) {
	if got := Entity("segments").Schema(); got != nil {
		t.Fatalf("Schema() = %v, want nil", got)
	}
}
