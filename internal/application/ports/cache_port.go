package ports

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// CacheInvalidator define el puerto de la caché de agregados de lectura.
// Las claves van siempre bajo el espacio de nombres de la empresa (ver CompanyKey)
// para que Invalidate pueda purgarlas todas de una vez tras una escritura del ledger.
// Un fallo de caché nunca es fuente de verdad: ante un miss se recalcula desde el ledger.
//
// Cada empresa tiene una generación que Invalidate incrementa antes de purgar. Los lectores
// leen la generación ANTES de calcular y la incluyen en la clave (GenerationKey): un valor
// calculado antes de una escritura queda bajo una generación que nadie vuelve a leer.
type CacheInvalidator interface {
	// Invalidate incrementa la generación de la empresa y elimina sus entradas.
	Invalidate(ctx context.Context, companyID string) error
	// Generation generación vigente de la empresa; 0 si nunca se invalidó.
	Generation(ctx context.Context, companyID string) (int64, error)
	// Get decodifica la entrada en dest; found es false si no existe o expiró.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CompanyPrefix prefijo común de todas las claves de una empresa.
func CompanyPrefix(companyID string) string {
	return "company:" + companyID + ":"
}

// CompanyKey construye una clave namespaced: company:{id}:part1:part2...
func CompanyKey(companyID string, parts ...string) string {
	return CompanyPrefix(companyID) + strings.Join(parts, ":")
}

// GenerationKey clave versionada: company:{id}:g{gen}:part1:part2...
func GenerationKey(companyID string, gen int64, parts ...string) string {
	return CompanyKey(companyID, append([]string{"g" + strconv.FormatInt(gen, 10)}, parts...)...)
}

// GenerationCounterKey contador de generación; fuera del prefijo para sobrevivir a Invalidate.
func GenerationCounterKey(companyID string) string {
	return "cachegen:" + companyID
}
