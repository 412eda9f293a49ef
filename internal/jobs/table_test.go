package jobs

import (
	"reflect"
	"testing"
)

func TestMissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		want    []string
	}{
		{
			name:    "All present",
			columns: []string{AttrClusterID, AttrOwner, AttrRequestMemory, AttrMemoryUsage},
			want:    nil,
		},
		{
			name:    "Some missing, sorted",
			columns: []string{AttrClusterID, "RequestCpus"},
			want:    []string{AttrMemoryUsage, AttrOwner, AttrRequestMemory},
		},
		{
			name:    "Empty table misses everything",
			columns: nil,
			want:    []string{AttrClusterID, AttrMemoryUsage, AttrOwner, AttrRequestMemory},
		},
	}

	required := []string{AttrClusterID, AttrOwner, AttrRequestMemory, AttrMemoryUsage}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := &Table{Columns: tt.columns}
			got := tbl.MissingColumns(required...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingColumns() = %v, want %v", got, tt.want)
			}
			if hasAll := tbl.HasColumns(required...); hasAll != (len(tt.want) == 0) {
				t.Errorf("HasColumns() = %v, want %v", hasAll, len(tt.want) == 0)
			}
		})
	}
}

func TestRecordFloat(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    float64
		wantOK  bool
		wantErr bool
	}{
		{name: "Float value", value: 512.5, want: 512.5, wantOK: true},
		{name: "Int64 value", value: int64(1024), want: 1024, wantOK: true},
		{name: "Absent value", value: nil, wantOK: false},
		{name: "String value is an error", value: "undefined", wantErr: true},
		{name: "Bool value is an error", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Record{}
			if tt.value != nil {
				rec[AttrRequestMemory] = tt.value
			}
			got, ok, err := rec.Float(AttrRequestMemory)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Float() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Float() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRecordInt(t *testing.T) {
	rec := Record{
		AttrClusterID: int64(17),
		AttrProcID:    float64(3),
		AttrOwner:     "alice",
	}

	if id, ok, err := rec.Int(AttrClusterID); err != nil || !ok || id != 17 {
		t.Errorf("Int(ClusterId) = (%v, %v, %v), want (17, true, nil)", id, ok, err)
	}
	// JSON decoding hands back float64 for every number.
	if proc, ok, err := rec.Int(AttrProcID); err != nil || !ok || proc != 3 {
		t.Errorf("Int(ProcId) = (%v, %v, %v), want (3, true, nil)", proc, ok, err)
	}
	if _, ok, err := rec.Int(AttrJobStatus); err != nil || ok {
		t.Errorf("Int(JobStatus) on absent attribute = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
	if _, _, err := rec.Int(AttrOwner); err == nil {
		t.Error("Int(Owner) on string value expected error, got nil")
	}
}

func TestRecordString(t *testing.T) {
	rec := Record{AttrOwner: "bob", AttrClusterID: int64(5)}
	if got := rec.String(AttrOwner); got != "bob" {
		t.Errorf("String(Owner) = %q, want %q", got, "bob")
	}
	if got := rec.String(AttrClusterID); got != "5" {
		t.Errorf("String(ClusterId) = %q, want %q", got, "5")
	}
	if got := rec.String("Cmd"); got != "" {
		t.Errorf("String(absent) = %q, want empty", got)
	}
}
