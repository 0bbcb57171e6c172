package dtc

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/tools/txtar"
)

//go:embed structs.txtar
var rawStructs []byte

// structs maps each header group to its type definitions.
var structs = map[string]string{}

func init() {
	for _, f := range txtar.Parse(rawStructs).Files {
		structs[f.Name] = string(f.Data)
	}
}

const license = `/**
 *  Copyright 2022-2024 Beijing WinnerMicroelectronics Co.,Ltd.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */
`

const (
	HeaderFile  = "wm_dt_hw.h"
	DevNameFile = "wm_dt_dev_name.h"
)

// SourceFile returns the name of the generated table source for a table.
func SourceFile(table string) string {
	if len(table) == 0 {
		return "wm_dt_hw.c"
	}
	return "wm_dt_hw_" + table + ".c"
}

func fileComment(w *strings.Builder, name string, brief string) {
	fmt.Fprintf(w, "/**\n * @file %s\n *\n * @brief %s\n *\n */\n\n", name, brief)
	w.WriteString(license)
}

func guardOpen(w *strings.Builder, guard string) {
	fmt.Fprintf(w, "#ifndef %s\n#define %s\n\n", guard, guard)
}

func guardClose(w *strings.Builder, guard string) {
	fmt.Fprintf(w, "\n#ifdef __cplusplus\n}\n#endif\n\n#endif /* %s */\n", guard)
}

// renderHeader writes the type definitions of the given groups.
func renderHeader(groups []string) string {
	var w strings.Builder
	fileComment(&w, HeaderFile, "Hardware Info Module")
	guardOpen(&w, "__WM_DT_HW_H__")
	w.WriteString("#include \"wmsdk_config.h\"\n#include \"wm_types.h\"\n#include \"wm_soc_cfgs.h\"\n\n")
	w.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")
	w.WriteString("#pragma pack(1)\n")
	for _, group := range groups {
		w.WriteString("\n")
		w.WriteString(structs[group])
	}
	w.WriteString("\n#pragma pack()\n")
	guardClose(&w, "__WM_DT_HW_H__")
	return w.String()
}

// renderDevNames writes one name constant per table entry. Values are
// aligned on the longest name.
func renderDevNames(names []string) string {
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}
	width += 8

	var w strings.Builder
	fileComment(&w, DevNameFile, "Device Name Module")
	guardOpen(&w, "__WM_DT_DEV_NAME_H__")
	w.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")
	for _, name := range names {
		fmt.Fprintf(&w, "#define WM_DEV_%s_NAME%s\"%s\"\n", strings.ToUpper(name), strings.Repeat(" ", width-len(name)), name)
	}
	guardClose(&w, "__WM_DT_DEV_NAME_H__")
	return w.String()
}
