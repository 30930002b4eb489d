package service

import (
	"github.com/helsby/invoicer/internal/domain"
)

// Lookup errors - use domain.ENOTFOUND
var (
	ErrInvoiceNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Invoice not found")
	ErrTemplateNotFound = domain.Errorf(domain.ENOTFOUND, "", "Template not found")
	ErrCompanyNotFound  = domain.Errorf(domain.ENOTFOUND, "", "Company not found")
	ErrCustomerNotFound = domain.Errorf(domain.ENOTFOUND, "", "Customer not found")
)

// Validation errors - use domain.EINVALID
var (
	ErrMissingBatchID  = domain.Errorf(domain.EINVALID, "", "Order batch ID is required")
	ErrMissingCurrency = domain.Errorf(domain.EINVALID, "", "Currency is required")
	ErrMissingDueDate  = domain.Errorf(domain.EINVALID, "", "Due date is required")
)

// Conflict errors
var (
	ErrReferenceExhausted = domain.Errorf(domain.ECONFLICT, "", "Could not allocate a unique invoice reference")
)
