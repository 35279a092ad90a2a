// Package document maneja los dos artefactos binarios del workflow:
// el PDF exportado sin firmar y la copia firmada que sube el
// departamento. No interpreta el contenido más allá del magic number.
package document

import (
	"bytes"
	"context"
	"fmt"

	"order-workflow-service/internal/model"
	"order-workflow-service/internal/repository"
	"order-workflow-service/internal/service"
)

var pdfMagic = []byte("%PDF-")

const (
	KindUnsigned = "unsigned"
	KindSigned   = "signed"
)

// FileStore es el colaborador de almacenamiento: bytes adentro,
// referencia opaca afuera.
type FileStore interface {
	Store(ctx context.Context, name string, data []byte) (string, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Workflow es lo que el exchange necesita del state machine: leer el
// snapshot y confirmar las dos transiciones del loop de documentos.
type Workflow interface {
	GetOrder(ctx context.Context, actor service.Actor, orderID string) (*model.Order, error)
	MarkExported(ctx context.Context, actor service.Actor, orderID, documentRef string) (*model.Order, error)
	MarkSigned(ctx context.Context, actor service.Actor, orderID, documentRef string) (*model.Order, error)
}

type Exchange struct {
	workflow Workflow
	store    FileStore
	maxBytes int64
}

func NewExchange(wf Workflow, store FileStore, maxBytes int64) *Exchange {
	return &Exchange{workflow: wf, store: store, maxBytes: maxBytes}
}

// MaxBytes expone el límite para que el handler corte la lectura del
// upload sin bufferear un archivo que igual se va a rechazar.
func (e *Exchange) MaxBytes() int64 {
	return e.maxBytes
}

// Export renderiza el PDF a partir del snapshot del pedido y dispara
// pending → exported. El render y el Store corren sin ningún lock
// tomado; si el CAS de la transición pierde la carrera, el pedido
// queda intacto y el caller puede reintentar.
func (e *Exchange) Export(ctx context.Context, actor service.Actor, orderID string) (*model.Order, error) {
	o, err := e.workflow.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.StatusPending {
		return nil, service.ErrInvalidTransition
	}

	data, err := renderOrderPDF(o)
	if err != nil {
		return nil, fmt.Errorf("render del pedido %s: %w", orderID, err)
	}

	ref, err := e.store.Store(ctx, orderID+"-unsigned.pdf", data)
	if err != nil {
		return nil, err
	}
	return e.workflow.MarkExported(ctx, actor, orderID, ref)
}

// UploadSigned valida la copia firmada y dispara exported → uploaded.
// La validación es de tipo y tamaño, no de firma: verificar la firma
// en sí es un paso humano, no del sistema.
func (e *Exchange) UploadSigned(ctx context.Context, actor service.Actor, orderID string, fileBytes []byte) (*model.Order, error) {
	if err := e.validatePDF(fileBytes); err != nil {
		return nil, err
	}

	o, err := e.workflow.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.StatusExported {
		return nil, service.ErrInvalidTransition
	}

	ref, err := e.store.Store(ctx, orderID+"-signed.pdf", fileBytes)
	if err != nil {
		return nil, err
	}
	return e.workflow.MarkSigned(ctx, actor, orderID, ref)
}

func (e *Exchange) validatePDF(fileBytes []byte) error {
	if len(fileBytes) == 0 {
		return fmt.Errorf("%w: archivo vacío", service.ErrInvalidPayload)
	}
	if e.maxBytes > 0 && int64(len(fileBytes)) > e.maxBytes {
		return fmt.Errorf("%w: el archivo supera el límite de %d bytes", service.ErrInvalidPayload, e.maxBytes)
	}
	if !bytes.HasPrefix(fileBytes, pdfMagic) {
		return fmt.Errorf("%w: el archivo no es un PDF", service.ErrInvalidPayload)
	}
	return nil
}

// Download recupera uno de los dos artefactos para el caller.
func (e *Exchange) Download(ctx context.Context, actor service.Actor, orderID, kind string) ([]byte, error) {
	o, err := e.workflow.GetOrder(ctx, actor, orderID)
	if err != nil {
		return nil, err
	}

	var ref string
	switch kind {
	case KindUnsigned:
		ref = o.UnsignedDocumentRef
	case KindSigned:
		ref = o.SignedDocumentRef
	default:
		return nil, fmt.Errorf("%w: tipo de documento desconocido %q", service.ErrInvalidPayload, kind)
	}
	if ref == "" {
		return nil, repository.ErrNotFound
	}
	return e.store.Fetch(ctx, ref)
}
