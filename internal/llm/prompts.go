package llm

// Invoice extraction prompts

const SystemPromptInvoiceExtractor = `You are an expert Tally data entry operator working with Indian GST invoices.

Analyze the invoice and identify its table structure, headers and values accurately.
Decide whether the document is a sale (we issued it) or a purchase (we received it).
If a field is not present, use null rather than guessing.
Return ONLY the JSON object. Do not add explanations, intro text, or markdown formatting.
Numbers must be plain JSON numbers without currency symbols or thousands separators.
Dates must be in ISO 8601 format (YYYY-MM-DD).`

// invoiceSchema is the record shape expected back from every provider
const invoiceSchema = `{
  "type": "Sales" | "Purchase" | "Credit Note" | "Debit Note",
  "invoice_number": "string",
  "invoice_date": "YYYY-MM-DD",
  "supplier": { "name": "string", "gstin": "string or null" },
  "customer": { "name": "string", "gstin": "string or null" },
  "line_items": [
    {
      "description": "string",
      "quantity": number,
      "unit": "string, e.g. Nos, Pcs, Kg",
      "rate": number,
      "amount": number,
      "tally_ledger": "suggested ledger, e.g. Purchase @ 18%"
    }
  ],
  "tax_details": { "cgst": number, "sgst": number, "igst": number, "total_tax": number },
  "total_amount": number
}`

const UserPromptImageExtraction = `Extract the invoice in this document into valid JSON.

JSON Structure:
` + invoiceSchema

const UserPromptTextExtraction = `Extract invoice data from the following text:

---
%s
---

Output JSON with this structure:
` + invoiceSchema
