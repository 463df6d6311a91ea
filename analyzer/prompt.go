package analyzer

import "fmt"

// =============================================================================
// PROMPT TEMPLATES
// =============================================================================

// typePrompt builds the contract type identification prompt.
func typePrompt(contractExcerpt string) string {
	return fmt.Sprintf(`You are an expert contract analyst. Analyze this contract and identify its type.

Contract Text:
%s

Classify the contract into ONE of these types:
- SaaS Subscription (recurring software access)
- Professional Services (consulting, implementation, training)
- Perpetual Software License (one-time software purchase)
- Hybrid (combination of subscription + services)
- Hardware/Equipment Sale
- Maintenance & Support
- Other

Return valid JSON with this structure:
{
    "contract_type": "the primary contract type from the list above",
    "confidence": "high/medium/low",
    "reasoning": "2-3 sentence explanation of why this is the identified type",
    "key_indicators": ["indicator 1", "indicator 2", "indicator 3"]
}

Requirements:
- contract_type must be exactly one of the types listed above
- confidence must be exactly "high", "medium", or "low"
- reasoning must be 2-3 complete sentences
- key_indicators must be an array of 1-5 specific text indicators

Respond ONLY with valid JSON, no additional text.`, contractExcerpt)
}

// analysisPrompt builds the combined extraction and ASC 606 analysis prompt.
// Extraction and analysis share one call to halve latency and token cost.
func analysisPrompt(contractExcerpt string) string {
	return fmt.Sprintf(`You are an expert contract analyst and accountant specializing in ASC 606 revenue recognition.

Analyze this SaaS contract and provide BOTH contract information extraction AND ASC 606 analysis in a single response.

Contract Text:
%s

Return valid JSON with this EXACT structure:
{
    "contract_info": {
        "customer_name": "company name of the customer (required)",
        "vendor_name": "company name of the vendor/provider (required)",
        "contract_start_date": "YYYY-MM-DD format - extract the actual start/effective date from the contract",
        "contract_end_date": "YYYY-MM-DD format - extract the actual end/termination date from the contract",
        "total_contract_value": 0,
        "payment_terms": "monthly/annual/quarterly (required)",
        "performance_obligations": [
            {"name": "distinct service", "allocated_value": 0, "recognition": "over_time/point_in_time/upfront"}
        ]
    },
    "asc606_analysis": {
        "step_1": {
            "title": "Identify the Contract",
            "description": "Brief analysis of contract validity and enforceability",
            "details": ["specific point about contract identification", "another point"]
        },
        "step_2": {
            "title": "Identify Performance Obligations",
            "description": "Analysis of distinct goods/services promised",
            "details": ["specific performance obligation", "another obligation"]
        },
        "step_3": {
            "title": "Determine Transaction Price",
            "description": "Analysis of total consideration expected",
            "details": ["fixed consideration component", "variable consideration if any"]
        },
        "step_4": {
            "title": "Allocate Transaction Price",
            "description": "Allocation methodology and SSP considerations",
            "details": ["allocation to obligation 1", "allocation to obligation 2"]
        },
        "step_5": {
            "title": "Recognize Revenue",
            "description": "Revenue recognition timing and pattern",
            "details": ["recognition timing for obligation 1", "recognition timing for obligation 2"]
        }
    }
}

Critical Requirements:
- All dates must be in YYYY-MM-DD format
- total_contract_value must be a numeric value (no currency symbols)
- allocated_value must be numeric; omit performance_obligations entries you cannot value
- Each step must have title, description, and details array
- Respond ONLY with valid JSON, no additional text.`, contractExcerpt)
}
