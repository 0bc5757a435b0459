package collector

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestField_UnmarshalJSON(t *testing.T) {
	var p struct {
		Quoted Field `json:"quoted"`
		Bare   Field `json:"bare"`
		Null   Field `json:"null"`
		None   Field `json:"none"`
		Flag   Field `json:"flag"`
		Obj    Field `json:"obj"`
		Absent Field `json:"absent"`
	}
	data := `{"quoted":"148.79","bare":2.5e3,"null":null,"none":"None","flag":true,"obj":{"x":1}}`
	require.NoError(t, json.Unmarshal([]byte(data), &p))

	assert.Equal(t, 148.79, p.Quoted.Number().Float64)
	assert.Equal(t, 2500.0, p.Bare.Number().Float64)
	assert.False(t, p.Null.Number().Valid)
	assert.False(t, p.None.Number().Valid)
	assert.Equal(t, "None", p.None.String())
	assert.True(t, p.Flag.Bool().Bool)
	assert.True(t, p.Obj.Empty())
	assert.True(t, p.Absent.Empty())
}

func TestField_Count(t *testing.T) {
	assert.Equal(t, int64(67903927), Field("67903927").Count().Int64)
	assert.False(t, Field("-").Count().Valid)
}

func TestField_Bool(t *testing.T) {
	assert.False(t, Field("False").Bool().Bool)
	assert.True(t, Field("False").Bool().Valid)
	assert.False(t, Field("maybe").Bool().Valid)
}

func TestRaw(t *testing.T) {
	var p struct {
		Target Raw `json:"target"`
		Empty  Raw `json:"empty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"target":{"raw":312.5,"fmt":"312.50"},"empty":{}}`), &p))

	assert.Equal(t, 312.5, p.Target.Number().Float64)
	assert.False(t, p.Empty.Number().Valid)
}

func TestRaw_BareScalar(t *testing.T) {
	var p struct {
		Mean Raw `json:"mean"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mean":"2.1"}`), &p))
	assert.Equal(t, 2.1, p.Mean.Number().Float64)
}
