package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/testutil"
)

func latin1(t *testing.T, s string) []byte {
	t.Helper()
	out, err := charmap.ISO8859_1.NewEncoder().String(s)
	require.NoError(t, err)
	return []byte(out)
}

func TestImportRosterSkipsEmptyCPF(t *testing.T) {
	db := testutil.NewMemoryDB()
	svc := NewRosterService(db.Employees(), ';')

	n, err := svc.ImportRoster(context.Background(), []*RosterRow{
		{CPF: "123.456.789-00", Status: "Ativo"},
		{CPF: "", Status: "Ativo"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := db.Employees().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	emp, err := svc.GetEmployee(context.Background(), "12345678900")
	require.NoError(t, err)
	assert.Equal(t, "12345678900", emp.CPF)
	assert.True(t, emp.Active)
	assert.Equal(t, employee.UnspecifiedDepartment, emp.Department)
}

func TestImportRosterNormalizesFields(t *testing.T) {
	db := testutil.NewMemoryDB()
	svc := NewRosterService(db.Employees(), ';')

	n, err := svc.ImportRoster(context.Background(), []*RosterRow{
		{CPF: " 111.222.333-44 ", Name: "  MARIA DA SILVA ", Department: " Produção ", Role: " Operadora ", Status: "ATIVO"},
		{CPF: "555.666.777-88", Name: "joão pereira", Department: "TI", Status: "Inativo"},
		{CPF: "ABC.DEF", Name: "Sem CPF", Status: "Ativo"},
		{CPF: "999.888.777-66", Name: "Demitida", Status: "Desligado"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	maria, err := svc.GetEmployee(context.Background(), "111.222.333-44")
	require.NoError(t, err)
	assert.Equal(t, "Maria Da Silva", maria.Name)
	assert.Equal(t, "Produção", maria.Department)
	assert.Equal(t, "Operadora", maria.Role)
	assert.True(t, maria.Active)

	joao, err := svc.GetEmployee(context.Background(), "55566677788")
	require.NoError(t, err)
	assert.Equal(t, "João Pereira", joao.Name)
	assert.False(t, joao.Active)

	active, err := db.Employees().CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestImportRosterReplacesPreviousRoster(t *testing.T) {
	db := testutil.NewMemoryDB()
	svc := NewRosterService(db.Employees(), ';')
	ctx := context.Background()

	_, err := svc.ImportRoster(ctx, []*RosterRow{{CPF: "11122233344", Status: "Ativo"}})
	require.NoError(t, err)
	_, err = svc.ImportRoster(ctx, []*RosterRow{
		{CPF: "55566677788", Name: "primeira", Status: "Ativo"},
		{CPF: "555.666.777-88", Name: "segunda", Status: "Ativo"},
	})
	require.NoError(t, err)

	_, err = svc.GetEmployee(ctx, "11122233344")
	assert.ErrorIs(t, err, employee.ErrNotFound)

	emp, err := svc.GetEmployee(ctx, "55566677788")
	require.NoError(t, err)
	assert.Equal(t, "Segunda", emp.Name)

	count, err := db.Employees().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestParseRosterLatin1(t *testing.T) {
	svc := NewRosterService(nil, ';')
	data := latin1(t, strings.Join([]string{
		"CPF;NOME;SETOR;CARGO;SITUACAO",
		"123.456.789-00;JOSÉ CONCEIÇÃO;Manutenção;Mecânico;Ativo",
		";SEM CPF;TI;Dev;Ativo",
	}, "\n"))

	rows, err := svc.ParseRoster(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "123.456.789-00", rows[0].CPF)
	assert.Equal(t, "JOSÉ CONCEIÇÃO", rows[0].Name)
	assert.Equal(t, "Manutenção", rows[0].Department)
	assert.Equal(t, "Mecânico", rows[0].Role)
	assert.Equal(t, "Ativo", rows[0].Status)
	assert.Empty(t, rows[1].CPF)
}

func TestImportRosterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "colaboradores.csv")
	require.NoError(t, os.WriteFile(path, latin1(t, "CPF;NOME;SETOR;CARGO;SITUACAO\n123.456.789-00;ANA;RH;Analista;Ativo\n;X;Y;Z;Ativo\n"), 0o644))

	db := testutil.NewMemoryDB()
	n, err := NewRosterService(db.Employees(), ';').ImportRosterFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestImportRosterFileMissing(t *testing.T) {
	_, err := NewRosterService(testutil.NewMemoryDB().Employees(), ';').ImportRosterFile(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
