package utils

import (
	"math/big"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if config.FieldModulus.Cmp(big.NewInt(0)) <= 0 {
		t.Error("FieldModulus should be positive")
	}

	if config.Width <= 0 {
		t.Error("Width should be positive")
	}

	if config.ConstraintDegree <= 0 {
		t.Error("ConstraintDegree should be positive")
	}

	if config.ExtensionFactor <= 0 {
		t.Error("ExtensionFactor should be positive")
	}

	if config.SpotCheckSecurityFactor <= 0 {
		t.Error("SpotCheckSecurityFactor should be positive")
	}

	if config.HashFunction == "" {
		t.Error("HashFunction should not be empty")
	}

	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig() should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		expectErr bool
	}{
		{
			name:      "valid default config",
			config:    DefaultConfig(),
			expectErr: false,
		},
		{
			name: "invalid field modulus (too small)",
			config: &Config{
				FieldModulus:            big.NewInt(1),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha256",
			},
			expectErr: true,
		},
		{
			name: "invalid width (zero)",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   0,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha256",
			},
			expectErr: true,
		},
		{
			name: "invalid constraint degree (zero)",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        0,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha256",
			},
			expectErr: true,
		},
		{
			name: "invalid extension factor (not power of 2)",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         6,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha256",
			},
			expectErr: true,
		},
		{
			name: "invalid extension factor (one)",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         1,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha256",
			},
			expectErr: true,
		},
		{
			name: "invalid spot check security factor (zero)",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 0,
				HashFunction:            "sha256",
			},
			expectErr: true,
		},
		{
			name: "invalid hash function",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "invalid",
			},
			expectErr: true,
		},
		{
			name: "valid sha256",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha256",
			},
			expectErr: false,
		},
		{
			name: "valid sha3",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "sha3",
			},
			expectErr: false,
		},
		{
			name: "valid blake2b",
			config: &Config{
				FieldModulus:            big.NewInt(3221225473),
				Width:                   1,
				ConstraintDegree:        2,
				ExtensionFactor:         8,
				SpotCheckSecurityFactor: 3,
				HashFunction:            "blake2b",
			},
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.expectErr {
				t.Errorf("Validate() error = %v, expectErr = %v", err, tt.expectErr)
			}
		})
	}
}

func TestConfigWithMethods(t *testing.T) {
	config := DefaultConfig()

	newModulus := big.NewInt(123456789)
	config.WithFieldModulus(newModulus)
	if config.FieldModulus.Cmp(newModulus) != 0 {
		t.Errorf("WithFieldModulus() failed: expected %v, got %v", newModulus, config.FieldModulus)
	}

	config.WithWidth(3)
	if config.Width != 3 {
		t.Errorf("WithWidth() failed: expected 3, got %d", config.Width)
	}

	config.WithConstraintDegree(4)
	if config.ConstraintDegree != 4 {
		t.Errorf("WithConstraintDegree() failed: expected 4, got %d", config.ConstraintDegree)
	}

	config.WithExtensionFactor(16)
	if config.ExtensionFactor != 16 {
		t.Errorf("WithExtensionFactor() failed: expected 16, got %d", config.ExtensionFactor)
	}

	config.WithSpotCheckSecurityFactor(40)
	if config.SpotCheckSecurityFactor != 40 {
		t.Errorf("WithSpotCheckSecurityFactor() failed: expected 40, got %d", config.SpotCheckSecurityFactor)
	}

	config.WithHashFunction("sha256")
	if config.HashFunction != "sha256" {
		t.Errorf("WithHashFunction() failed: expected sha256, got %s", config.HashFunction)
	}
}

func TestConfigWithMethodsChaining(t *testing.T) {
	config := DefaultConfig().
		WithWidth(2).
		WithConstraintDegree(3).
		WithExtensionFactor(4).
		WithSpotCheckSecurityFactor(20).
		WithHashFunction("sha3")

	if config.Width != 2 {
		t.Errorf("Width: expected 2, got %d", config.Width)
	}
	if config.ConstraintDegree != 3 {
		t.Errorf("ConstraintDegree: expected 3, got %d", config.ConstraintDegree)
	}
	if config.ExtensionFactor != 4 {
		t.Errorf("ExtensionFactor: expected 4, got %d", config.ExtensionFactor)
	}
	if config.SpotCheckSecurityFactor != 20 {
		t.Errorf("SpotCheckSecurityFactor: expected 20, got %d", config.SpotCheckSecurityFactor)
	}
	if config.HashFunction != "sha3" {
		t.Errorf("HashFunction: expected sha3, got %s", config.HashFunction)
	}
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	original.Width = 3
	original.HashFunction = "blake2b"

	cloned := original.Clone()

	if cloned.FieldModulus.Cmp(original.FieldModulus) != 0 {
		t.Error("Cloned FieldModulus doesn't match")
	}
	if cloned.Width != original.Width {
		t.Error("Cloned Width doesn't match")
	}
	if cloned.ConstraintDegree != original.ConstraintDegree {
		t.Error("Cloned ConstraintDegree doesn't match")
	}
	if cloned.ExtensionFactor != original.ExtensionFactor {
		t.Error("Cloned ExtensionFactor doesn't match")
	}
	if cloned.SpotCheckSecurityFactor != original.SpotCheckSecurityFactor {
		t.Error("Cloned SpotCheckSecurityFactor doesn't match")
	}
	if cloned.HashFunction != original.HashFunction {
		t.Error("Cloned HashFunction doesn't match")
	}

	cloned.Width = 99
	if original.Width == 99 {
		t.Error("Modifying clone affected original")
	}

	cloned.FieldModulus.SetInt64(999999)
	if original.FieldModulus.Int64() == 999999 {
		t.Error("Modifying cloned FieldModulus affected original")
	}
}

func TestConfigValidationEdgeCases(t *testing.T) {
	config := &Config{
		FieldModulus:            big.NewInt(3221225473),
		Width:                   1,
		ConstraintDegree:        2,
		ExtensionFactor:         2,
		SpotCheckSecurityFactor: 3,
		HashFunction:            "sha256",
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Config with ExtensionFactor = 2 should be valid: %v", err)
	}

	config = &Config{
		FieldModulus:            big.NewInt(3),
		Width:                   1,
		ConstraintDegree:        2,
		ExtensionFactor:         8,
		SpotCheckSecurityFactor: 3,
		HashFunction:            "sha256",
	}

	if err := config.Validate(); err != nil {
		t.Errorf("Config with FieldModulus = 3 should be valid: %v", err)
	}
}

func TestConfigImmutabilityOfDefault(t *testing.T) {
	config1 := DefaultConfig()
	config2 := DefaultConfig()

	config1.Width = 99

	if config2.Width == 99 {
		t.Error("DefaultConfig() returns shared instances (should return independent instances)")
	}
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		DefaultConfig()
	}
}

func BenchmarkConfigValidate(b *testing.B) {
	config := DefaultConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		config.Validate()
	}
}

func BenchmarkConfigClone(b *testing.B) {
	config := DefaultConfig()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		config.Clone()
	}
}
