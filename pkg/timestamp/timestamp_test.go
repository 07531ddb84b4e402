package timestamp

import (
	"testing"
	"time"
)

// Test constants
var (
	testTime       = time.Date(2023, 1, 15, 12, 30, 45, 123000000, time.UTC) // Use exact milliseconds
	testTimeMs     = int64(1673785845123)                                    // Correct timestamp for the date above
	testTimeString = "2023-01-15T12:30:45Z"
)

func TestNow(t *testing.T) {
	before := time.Now().UnixMilli()
	ts := Now()
	after := time.Now().UnixMilli()

	if ts < before || ts > after {
		t.Errorf("Now() = %d, expected between %d and %d", ts, before, after)
	}
}

func TestToUnixMs(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected int64
	}{
		{
			name:     "normal time",
			input:    testTime,
			expected: testTimeMs,
		},
		{
			name:     "zero time",
			input:    time.Time{},
			expected: 0,
		},
		{
			name:     "unix epoch",
			input:    time.Unix(0, 0),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToUnixMs(tt.input)
			if result != tt.expected {
				t.Errorf("ToUnixMs(%v) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFromUnixMs(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected time.Time
	}{
		{
			name:     "normal timestamp",
			input:    testTimeMs,
			expected: time.UnixMilli(testTimeMs),
		},
		{
			name:     "zero timestamp",
			input:    0,
			expected: time.Time{},
		},
		{
			name:     "negative timestamp",
			input:    -1000,
			expected: time.UnixMilli(-1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FromUnixMs(tt.input)
			if !result.Equal(tt.expected) {
				t.Errorf("FromUnixMs(%d) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    int64
		expected string
	}{
		{
			name:     "normal timestamp",
			input:    testTimeMs,
			expected: "2023-01-15T12:30:45Z",
		},
		{
			name:     "zero timestamp",
			input:    0,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.input)
			if result != tt.expected {
				t.Errorf("Format(%d) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected int64
	}{
		// int64 tests
		{
			name:     "int64 milliseconds",
			input:    int64(1673785845123),
			expected: 1673785845123,
		},
		{
			name:     "int64 seconds",
			input:    int64(1673784645),
			expected: 1673784645000,
		},
		{
			name:     "int64 zero",
			input:    int64(0),
			expected: 0,
		},

		// float64 tests
		{
			name:     "float64 milliseconds",
			input:    float64(1673785845123),
			expected: 1673785845123,
		},
		{
			name:     "float64 seconds",
			input:    float64(1673784645),
			expected: 1673784645000,
		},
		{
			name:     "float64 seconds with fraction",
			input:    float64(1673784645.5),
			expected: 1673784645500,
		},
		{
			name:     "float64 zero",
			input:    float64(0),
			expected: 0,
		},

		// int tests
		{
			name:     "int seconds",
			input:    int(1673784645),
			expected: 1673784645000,
		},

		// string tests
		{
			name:     "RFC3339 string",
			input:    testTimeString,
			expected: 1673785845000, // No milliseconds in the string
		},
		{
			name:     "RFC3339 with milliseconds",
			input:    "2023-01-15T12:30:45.123Z",
			expected: testTimeMs,
		},
		{
			name:     "RFC3339 with timezone offset",
			input:    "2023-01-15T13:30:45+01:00",
			expected: 1673785845000,
		},
		{
			name:     "unix seconds string",
			input:    "1673784645",
			expected: 1673784645000,
		},
		{
			name:     "unix milliseconds string",
			input:    "1673785845123",
			expected: 1673785845123,
		},
		{
			name:     "float string",
			input:    "1673784645.5",
			expected: 1673784645500,
		},
		{
			name:     "empty string",
			input:    "",
			expected: 0,
		},
		{
			name:     "invalid string",
			input:    "not-a-timestamp",
			expected: 0,
		},

		// time.Time tests
		{
			name:     "time.Time value",
			input:    testTime,
			expected: testTimeMs,
		},
		{
			name:     "zero time.Time",
			input:    time.Time{},
			expected: 0,
		},
		{
			name:     "pointer to time.Time",
			input:    &testTime,
			expected: testTimeMs,
		},
		{
			name:     "nil pointer to time.Time",
			input:    (*time.Time)(nil),
			expected: 0,
		},

		// nil and unsupported types
		{
			name:     "nil input",
			input:    nil,
			expected: 0,
		},
		{
			name:     "unsupported type",
			input:    []string{"nope"},
			expected: 0,
		},
		{
			name:     "bool input",
			input:    true,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse(tt.input)
			if result != tt.expected {
				t.Errorf("Parse(%v) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected time.Time
	}{
		{
			name:     "RFC3339 string",
			input:    testTimeString,
			expected: time.UnixMilli(1673785845000),
		},
		{
			name:     "unix milliseconds",
			input:    testTimeMs,
			expected: time.UnixMilli(testTimeMs),
		},
		{
			name:     "invalid input yields zero time",
			input:    "garbage",
			expected: time.Time{},
		},
		{
			name:     "nil yields zero time",
			input:    nil,
			expected: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseTime(tt.input)
			if !result.Equal(tt.expected) {
				t.Errorf("ParseTime(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	if !IsZero(0) {
		t.Error("IsZero(0) = false, expected true")
	}
	if IsZero(testTimeMs) {
		t.Errorf("IsZero(%d) = true, expected false", testTimeMs)
	}
}

func TestSince(t *testing.T) {
	past := time.Now().Add(-1 * time.Hour).UnixMilli()
	d := Since(past)
	if d < 59*time.Minute || d > 61*time.Minute {
		t.Errorf("Since(one hour ago) = %v, expected about 1h", d)
	}

	if Since(0) != 0 {
		t.Errorf("Since(0) = %v, expected 0", Since(0))
	}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    int64
		end      int64
		expected time.Duration
	}{
		{
			name:     "one second apart",
			start:    testTimeMs,
			end:      testTimeMs + 1000,
			expected: time.Second,
		},
		{
			name:     "reversed order gives negative",
			start:    testTimeMs + 1000,
			end:      testTimeMs,
			expected: -time.Second,
		},
		{
			name:     "zero start",
			start:    0,
			end:      testTimeMs,
			expected: 0,
		},
		{
			name:     "zero end",
			start:    testTimeMs,
			end:      0,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Between(tt.start, tt.end)
			if result != tt.expected {
				t.Errorf("Between(%d, %d) = %v, expected %v", tt.start, tt.end, result, tt.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   int64
		wantErr bool
	}{
		{
			name:    "valid timestamp",
			input:   testTimeMs,
			wantErr: false,
		},
		{
			name:    "zero timestamp",
			input:   0,
			wantErr: false,
		},
		{
			name:    "negative timestamp",
			input:   -1,
			wantErr: true,
		},
		{
			name:    "beyond year 3000",
			input:   32503680000001,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
