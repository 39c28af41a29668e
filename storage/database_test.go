package storage

import (
	"os"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poolhand/rebalance"
)

// chdir switches the working directory for the test and restores it on
// cleanup, standing in for testing.T.Chdir on Go toolchains before 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestWalletProfiles(t *testing.T) {
	chdir(t, t.TempDir())

	db, err := Connect()
	require.NoError(t, err)
	defer db.Close()

	names, err := db.GetAllWalletNames()
	require.NoError(t, err)
	assert.Empty(t, names)

	staker := solana.NewWallet().PrivateKey
	treasury := solana.NewWallet().PrivateKey
	require.NoError(t, db.SaveWallet("staker", staker))
	require.NoError(t, db.SaveWallet("treasury", treasury))

	names, err = db.GetAllWalletNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"staker", "treasury"}, names)

	wallet, err := db.GetWallet("staker")
	require.NoError(t, err)
	assert.Equal(t, "staker", wallet.Name)
	assert.Equal(t, []byte(staker), wallet.PrivateKey)

	_, err = db.GetWallet("missing")
	assert.ErrorContains(t, err, `no wallet named "missing"`)
}

func TestSaveWalletReplacesProfile(t *testing.T) {
	chdir(t, t.TempDir())

	db, err := Connect()
	require.NoError(t, err)

	first := solana.NewWallet().PrivateKey
	second := solana.NewWallet().PrivateKey
	require.NoError(t, db.SaveWallet("staker", first))
	require.NoError(t, db.SaveWallet("staker", second))

	wallet, err := db.GetWallet("staker")
	require.NoError(t, err)
	assert.Equal(t, []byte(second), wallet.PrivateKey)

	names, err := db.GetAllWalletNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"staker"}, names)
}

func TestWalletSurvivesReconnect(t *testing.T) {
	chdir(t, t.TempDir())

	db, err := Connect()
	require.NoError(t, err)

	key := solana.NewWallet().PrivateKey
	require.NoError(t, db.SaveWallet("staker", key))

	reopened, err := Connect()
	require.NoError(t, err)

	wallet, err := reopened.GetWallet("staker")
	require.NoError(t, err)
	assert.Equal(t, []byte(key), wallet.PrivateKey)
}

func TestPassHistory(t *testing.T) {
	chdir(t, t.TempDir())

	db, err := Connect()
	require.NoError(t, err)

	records, err := db.GetPassHistory()
	require.NoError(t, err)
	assert.Empty(t, records)

	first := rebalance.PassRecord{
		Epoch:     500,
		Time:      time.Now().UTC(),
		Planned:   3,
		Submitted: 2,
		Rejected:  1,
		Increased: 1_000_000,
		Decreased: 500_000,
	}
	require.NoError(t, db.AppendPassRecord(first))
	require.NoError(t, db.AppendPassRecord(rebalance.PassRecord{Epoch: 501, Time: first.Time.Add(time.Hour)}))

	records, err = db.GetPassHistory()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, uint64(500), records[0].Epoch)
	assert.Equal(t, 3, records[0].Planned)
	assert.Equal(t, uint64(1_000_000), records[0].Increased)
	assert.True(t, records[0].Time.Equal(first.Time))
	assert.Equal(t, uint64(501), records[1].Epoch)
}
