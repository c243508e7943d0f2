package primitive_test

import (
	"testing"

	"github.com/gencrypto/gencrypto/codegen"
	"github.com/gencrypto/gencrypto/interp"
	"github.com/gencrypto/gencrypto/platform"
	"github.com/gencrypto/gencrypto/primitive"
	"github.com/gencrypto/gencrypto/reg"
	"github.com/stretchr/testify/require"
)

// singleLimb wraps one SizedRegister as a one-limb Reg, the shape the
// masking verbs under test operate on (each share is itself a small
// Reg, not a bare SizedRegister).
func singleLimb(t *testing.T, s reg.SizedRegister) reg.Reg {
	t.Helper()
	r, err := reg.NewReg([]reg.SizedRegister{s}, s.Size, false)
	require.NoError(t, err)
	return r
}

// TestXorAndNotShareRecoversPlaintext exercises the masked AND-with-NOT
// gate across a handful of concrete share assignments, checking that
// recombining the two output shares always equals (~y) & z for the
// secrets y and z encode, regardless of which concrete shares and
// scratch randomness were used to represent them (the masking's
// functional correctness property, independent of its side-channel
// property, which a bit-accurate interpreter cannot observe).
func TestXorAndNotShareRecoversPlaintext(t *testing.T) {
	p := platform.AVRLike()

	cases := []struct {
		name                   string
		y0, y1, z0, z1         byte
		scratch, dst0, dst1    byte
	}{
		{"zero secrets, zero scratch", 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		{"y=0xFF z=0xFF shares", 0x12, 0x12 ^ 0xFF, 0x34, 0x34 ^ 0xFF, 0x00, 0x00, 0x00},
		{"random-looking shares", 0x5A, 0xA3, 0x0F, 0xF0, 0x77, 0x11, 0x22},
		{"nonzero dst accumulates via xor", 0x5A, 0xA3, 0x0F, 0xF0, 0x77, 0xAA, 0x55},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := codegen.New(p)
			statePtr, err := g.Permutation(0)
			require.NoError(t, err)
			base, err := statePtr.Limb(0)
			require.NoError(t, err)

			y, err := g.Temporary(16)
			require.NoError(t, err)
			z, err := g.Temporary(16)
			require.NoError(t, err)
			dst, err := g.Temporary(16)
			require.NoError(t, err)
			scratchLimb, err := g.Temporary(8)
			require.NoError(t, err)
			scratchSized, err := scratchLimb.Limb(0)
			require.NoError(t, err)
			scratch := singleLimb(t, scratchSized)

			require.NoError(t, g.Load(y, base, 0))
			require.NoError(t, g.Load(z, base, 2))
			require.NoError(t, g.Load(dst, base, 4))
			require.NoError(t, g.Load(scratch, base, 6))

			y0, err := y.Limb(0)
			require.NoError(t, err)
			y1, err := y.Limb(1)
			require.NoError(t, err)
			z0, err := z.Limb(0)
			require.NoError(t, err)
			z1, err := z.Limb(1)
			require.NoError(t, err)
			dst0, err := dst.Limb(0)
			require.NoError(t, err)
			dst1, err := dst.Limb(1)
			require.NoError(t, err)

			ySh := []reg.Reg{singleLimb(t, y0), singleLimb(t, y1)}
			zSh := []reg.Reg{singleLimb(t, z0), singleLimb(t, z1)}
			dSh := []reg.Reg{singleLimb(t, dst0), singleLimb(t, dst1)}

			require.NoError(t, primitive.XorAndNotShare(g, dSh, ySh, zSh, scratch))
			require.NoError(t, g.Store(dst, base, 4))
			buf, err := g.Finalize()
			require.NoError(t, err)

			state := []byte{c.y0, c.y1, c.z0, c.z1, c.dst0, c.dst1, c.scratch, 0}
			opts := interp.RunOptions{MemoryBytes: 256, StackBytes: 64, MaxInstructions: 100000}
			m, err := interp.ExecPermutation(p, buf, opts, statePtr, state)
			require.NoError(t, err)

			out, err := m.ReadBytes(uint64(opts.StackBytes)+4, 2)
			require.NoError(t, err)

			secretY := c.y0 ^ c.y1
			secretZ := c.z0 ^ c.z1
			want := (^secretY) & secretZ
			got := out[0] ^ out[1]
			require.Equal(t, want, got, "recombined output must equal (~y)&z")
		})
	}
}

// TestRefreshSharesPreservesSecret checks that RefreshShares never
// changes the XOR of a share set, only the concrete values of the
// individual shares.
func TestRefreshSharesPreservesSecret(t *testing.T) {
	p := platform.AVRLike()
	g := codegen.New(p)
	statePtr, err := g.Permutation(0)
	require.NoError(t, err)
	base, err := statePtr.Limb(0)
	require.NoError(t, err)

	a, err := g.Temporary(8)
	require.NoError(t, err)
	b, err := g.Temporary(8)
	require.NoError(t, err)
	c, err := g.Temporary(8)
	require.NoError(t, err)
	r0, err := g.Temporary(8)
	require.NoError(t, err)
	r1, err := g.Temporary(8)
	require.NoError(t, err)

	require.NoError(t, g.Load(a, base, 0))
	require.NoError(t, g.Load(b, base, 1))
	require.NoError(t, g.Load(c, base, 2))
	require.NoError(t, g.Load(r0, base, 3))
	require.NoError(t, g.Load(r1, base, 4))

	require.NoError(t, primitive.RefreshShares(g, []reg.Reg{a, b, c}, []reg.Reg{r0, r1}))

	require.NoError(t, g.Store(a, base, 0))
	require.NoError(t, g.Store(b, base, 1))
	require.NoError(t, g.Store(c, base, 2))
	buf, err := g.Finalize()
	require.NoError(t, err)

	aVal, bVal, cVal := byte(0x5A), byte(0xA3), byte(0x0F)
	rVal0, rVal1 := byte(0x11), byte(0x22)
	state := []byte{aVal, bVal, cVal, rVal0, rVal1}
	opts := interp.RunOptions{MemoryBytes: 256, StackBytes: 64, MaxInstructions: 100000}
	m, err := interp.ExecPermutation(p, buf, opts, statePtr, state)
	require.NoError(t, err)

	out, err := m.ReadBytes(uint64(opts.StackBytes), 3)
	require.NoError(t, err)

	wantSecret := aVal ^ bVal ^ cVal
	gotSecret := out[0] ^ out[1] ^ out[2]
	require.Equal(t, wantSecret, gotSecret, "RefreshShares must preserve the secret")

	// The refresh must have actually changed at least one share's
	// concrete value given nonzero randomness, or it isn't refreshing
	// anything.
	require.NotEqual(t, []byte{aVal, bVal, cVal}, out, "shares should change even though the secret does not")
}
